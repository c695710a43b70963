package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backkem/mdocsession/pkg/envelope"
	"github.com/backkem/mdocsession/pkg/session"
	"github.com/backkem/mdocsession/pkg/transport"
)

// DefaultListenAddr is the default TCP address for serve and connect.
const DefaultListenAddr = "127.0.0.1:18013"

func serveCmd(opts *options) *cobra.Command {
	var listenAddr string
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a holder that echoes requests over TCP",
		Long: "Accept TCP connections and run an endpoint session on each one,\n" +
			"echoing every request back until the reader terminates the session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Fail fast on bad flags before binding the port.
			check, err := opts.newSession(session.RoleEndpoint)
			if err != nil {
				return err
			}
			check.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listener, err := transport.ListenTCP(ctx, listenAddr, transport.TCPConfig{
				LoggerFactory: opts.loggerFactory(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", listener.Addr())

			return serve(ctx, cmd.OutOrStdout(), listener, opts, session.NewTable(maxSessions))
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", DefaultListenAddr, "TCP address to listen on")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", session.DefaultMaxSessions, "maximum concurrent sessions")
	return cmd
}

// serve accepts connections until ctx is done. Each connection gets its own
// endpoint session, tracked in table for the lifetime of the connection.
//
// On shutdown the endpoint sessions still open are reported before their
// connections are closed. Sessions of other roles in table are left alone.
func serve(ctx context.Context, out io.Writer, listener *transport.TCPListener, opts *options, table *session.Table) error {
	var wg sync.WaitGroup
	var outMu sync.Mutex
	printf := func(format string, args ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(out, format, args...)
	}

	// connCtx outlives ctx until the open sessions have been reported.
	connCtx, stopConns := context.WithCancel(context.WithoutCancel(ctx))

	go func() {
		select {
		case <-ctx.Done():
			table.ForEach(func(handle uint16, s *session.SecureSession) bool {
				if s.Role() == session.RoleEndpoint {
					printf("session %d open at shutdown\n", handle)
				}
				return true
			})
		case <-connCtx.Done():
		}
		listener.Close()
		stopConns()
	}()

	defer func() {
		stopConns()
		wg.Wait()
		if n := table.RemoveByRole(session.RoleEndpoint); n > 0 {
			printf("closed %d leftover sessions\n", n)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s, err := opts.newSession(session.RoleEndpoint)
		if err != nil {
			conn.Close()
			return err
		}
		handle, err := table.Add(s)
		if err != nil {
			printf("%s: rejected: %v\n", conn.RemoteAddr(), err)
			s.Close()
			conn.Close()
			continue
		}

		sc, err := session.NewSecureConn(session.SecureConnConfig{
			Session:       s,
			Conn:          conn,
			LoggerFactory: opts.loggerFactory(),
		})
		if err != nil {
			table.Remove(handle)
			conn.Close()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer table.Remove(handle)
			defer sc.Close()

			printf("%s: session %d established\n", sc.RemoteAddr(), handle)
			err := echo(connCtx, sc, func(n int) {
				printf("%s: session %d echoed %d bytes\n", sc.RemoteAddr(), handle, n)
			})
			printf("%s: session %d ended: %v\n", sc.RemoteAddr(), handle, err)
		}()
	}
}

// echo sends every request back until the peer terminates or an error occurs.
func echo(ctx context.Context, sc *session.SecureConn, onEcho func(n int)) error {
	// Unblock a pending Receive when the server shuts down.
	stop := context.AfterFunc(ctx, func() { sc.Close() })
	defer stop()

	for {
		request, err := sc.Receive(ctx)
		if err != nil {
			var statusErr *envelope.StatusError
			if errors.As(err, &statusErr) && statusErr.Status == envelope.StatusSessionTermination {
				return statusErr
			}
			return err
		}
		if err := sc.Send(ctx, request); err != nil {
			return err
		}
		onEcho(len(request))
	}
}
