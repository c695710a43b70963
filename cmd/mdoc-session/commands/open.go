package commands

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backkem/mdocsession/pkg/envelope"
)

func openCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open HEX...",
		Short: "Open hex SessionData messages in order",
		Long: "Open each hex SessionData message with a fresh session, in order, and\n" +
			"print the plaintext hex per line. Stops at the first message that fails.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newFlagSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for i, arg := range args {
				wire, err := decodeHex(fmt.Sprintf("message #%d", i+1), arg)
				if err != nil {
					return err
				}
				plaintext, err := s.Open(wire)
				if err != nil {
					var statusErr *envelope.StatusError
					if errors.As(err, &statusErr) {
						fmt.Fprintf(out, "status %d (%s)\n", uint64(statusErr.Status), statusErr.Status)
						return nil
					}
					return fmt.Errorf("message #%d: %w", i+1, err)
				}
				fmt.Fprintln(out, hex.EncodeToString(plaintext))
			}
			return nil
		},
	}
	return cmd
}
