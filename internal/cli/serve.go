package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/yungbote/labelbridge-backend/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Start(ctx); err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- a.Run() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := a.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}
