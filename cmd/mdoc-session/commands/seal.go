package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

func sealCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seal HEX...",
		Short: "Seal hex plaintexts in order",
		Long: "Seal each hex plaintext with a fresh session, in order, and print one\n" +
			"hex SessionData message per line. Use \"\" for an empty plaintext.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newFlagSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for i, arg := range args {
				plaintext, err := decodeHex(fmt.Sprintf("plaintext #%d", i+1), arg)
				if err != nil {
					return err
				}
				wire, err := s.Seal(plaintext)
				if err != nil {
					return fmt.Errorf("message #%d: %w", i+1, err)
				}
				fmt.Fprintln(out, hex.EncodeToString(wire))
			}
			return nil
		},
	}
	return cmd
}
