package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/backkem/mdocsession/pkg/session"
	"github.com/backkem/mdocsession/pkg/transport"
)

func connectCmd(opts *options) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "connect TEXT...",
		Short: "Run a reader that sends each argument to a holder over TCP",
		Long: "Connect to a holder, send each argument as one request, print each\n" +
			"response, then terminate the session.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(session.RoleReader)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			conn, err := transport.DialTCP(ctx, addr, transport.TCPConfig{
				LoggerFactory: opts.loggerFactory(),
			})
			if err != nil {
				s.Close()
				return err
			}

			sc, err := session.NewSecureConn(session.SecureConnConfig{
				Session:       s,
				Conn:          conn,
				LoggerFactory: opts.loggerFactory(),
			})
			if err != nil {
				s.Close()
				conn.Close()
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				if err := sc.Send(ctx, []byte(arg)); err != nil {
					sc.Close()
					return err
				}
				response, err := sc.Receive(ctx)
				if err != nil {
					sc.Close()
					return err
				}
				fmt.Fprintf(out, "%s\n", response)
			}
			return sc.Terminate(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", DefaultListenAddr, "holder TCP address")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall timeout")
	return cmd
}
