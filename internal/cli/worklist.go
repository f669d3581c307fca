package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/labelbridge-backend/internal/app"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

func newWorklistCmd(opts *rootOptions) *cobra.Command {
	var (
		username         string
		roleRaw          string
		confidenceFilter bool
	)

	cmd := &cobra.Command{
		Use:   "worklist",
		Short: "Print the worklist a user would get right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := domlabel.ParseRole(roleRaw)
			if !ok {
				return fmt.Errorf("unknown role %q", roleRaw)
			}
			if username == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, log, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg.Observability.MetricsEnabled = false
			cfg.Observability.TracingEnabled = false

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Services.Catalog.Reload(ctx); err != nil {
				return err
			}

			wl, err := a.Services.Labeling.Worklist(ctx, username, role, confidenceFilter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tITEM\tANNOTATOR\tREVIEWER\tCONFIDENCE")
			for i, it := range wl {
				confidence := ""
				if it.AnnotatorRecord != nil {
					confidence = it.AnnotatorRecord.Confidence
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, it.ItemID(), it.Annotator, it.Reviewer, confidence)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d item(s) for %s (%s)\n", wl.Len(), username, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Username to build the worklist for")
	cmd.Flags().StringVar(&roleRaw, "role", string(domlabel.RoleAnnotator), "annotator, reviewer or admin")
	cmd.Flags().BoolVar(&confidenceFilter, "confidence-filter", false, "Reviewer only: drop items the annotator marked High")
	return cmd
}
