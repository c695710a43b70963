package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backkem/mdocsession/pkg/session"
)

func deriveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print SKReader and SKDevice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, salt, err := opts.inputs()
			if err != nil {
				return err
			}
			keys, err := session.DeriveKeys(secret, salt, opts.keyLength)
			if err != nil {
				return err
			}
			defer keys.Zeroize()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SKReader: %s\n", hex.EncodeToString(keys.Reader))
			fmt.Fprintf(out, "SKDevice: %s\n", hex.EncodeToString(keys.Device))
			return nil
		},
	}
	return cmd
}
