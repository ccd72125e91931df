package main

import (
	"net"

	"github.com/spf13/cobra"

	"dockerps/internal/ipc"
	"dockerps/internal/relay"
)

func newShellCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <container-id>",
		Short: "Attach the terminal to a shell inside a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			conn, err := client.Shell(cmd.Context(), args[0])
			if err != nil {
				return wrapDialError(err, client.Addr())
			}

			local, err := openTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), func() { halfClose(conn) })
			if err != nil {
				_ = conn.Close()
				return err
			}

			_, relayErr := relay.Relay(cmd.Context(), local, conn)
			sawTrailer, flushErr := local.finish()
			switch {
			case relayErr != nil:
				return relayErr
			case flushErr != nil:
				return flushErr
			case !sawTrailer && cmd.Context().Err() == nil:
				return ipc.ErrMissingTrailer
			}
			return nil
		},
	}
}

// halfClose signals end of input while leaving the read side open for the
// rest of the session output.
func halfClose(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
		return
	}
	_ = conn.Close()
}
