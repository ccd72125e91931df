package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dockerps/internal/config"
	"dockerps/internal/dockerapi"
	"dockerps/internal/logging"
	"dockerps/internal/preflight"
	"dockerps/internal/transport"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Docker daemon connection and runtime paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			var pinger preflight.Pinger
			if client, err := daemonClient(cfg); err == nil {
				pinger = client
			}
			results := preflight.RunAll(cmd.Context(), cfg, pinger)

			rep := newReport(cmd.OutOrStdout(), "Preflight")
			for _, r := range results {
				o := outcomeOK
				if !r.Passed {
					o = outcomeFailed
				}
				rep.line(r.Name, o, r.Detail)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}

func daemonClient(cfg *config.Config) (*dockerapi.Client, error) {
	dialer, err := transport.New(cfg.Docker.TransportOptions())
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewCLI(cfg)
	if err != nil {
		return nil, err
	}
	return dockerapi.NewClient(dialer, dockerapi.WithLogger(logger)), nil
}
