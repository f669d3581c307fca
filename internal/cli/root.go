package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/labelbridge-backend/internal/app"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type rootOptions struct {
	configPath string
	version    string
}

func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	cmd := &cobra.Command{
		Use:          "labelbridge",
		Short:        "Intent-labeling backend for call transcripts",
		SilenceUsage: true,
		Version:      version,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (env: CONFIG_PATH, default: config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newWorklistCmd(opts))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.SetVersionTemplate("{{.Version}}\n")
	return cmd
}

// loadRuntime reads the config and builds the logger it asks for.
func (o *rootOptions) loadRuntime() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return app.Config{}, nil, err
	}
	if cfg.Observability.Version == "" {
		cfg.Observability.Version = o.version
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, log, nil
}
