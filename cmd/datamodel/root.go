package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/datamodel/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "datamodel",
		Short:         "Inspect and check datamodel data sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (default $"+config.EnvConfig+" or "+config.DefaultPath+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every statement")
	cmd.AddCommand(
		newSourcesCmd(opts),
		newPingCmd(opts),
		newQueryCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath)
}
