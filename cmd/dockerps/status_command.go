package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"dockerps/internal/preflight"
)

const statusProbeTimeout = 3 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a gateway is running and reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rep := newReport(cmd.OutOrStdout(), "Gateway Status")
			switch instance, err := preflight.ProbeInstance(cfg); {
			case err != nil:
				rep.line("Instance", outcomeFailed, err.Error())
			case instance.Running:
				rep.line("Instance", outcomeOK, instance.Detail())
			default:
				rep.line("Instance", outcomeInfo, instance.Detail())
			}

			addr := ctx.gatewayAddr()
			if err := probeListener(cmd.Context(), addr); err != nil {
				rep.line("Listener", outcomeFailed, addr+" unreachable")
				return nil
			}
			rep.line("Listener", outcomeOK, addr)
			return nil
		},
	}
}

// probeListener opens and immediately closes a TCP connection to addr. The
// gateway answers the empty request with a usage error.
func probeListener(ctx context.Context, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}
