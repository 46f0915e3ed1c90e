package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// upload <path>: encrypt and push a file to the server.
func uploadCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Encrypt, sign and upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := st.wire.Client()
			if err != nil {
				return err
			}
			if err := c.Upload(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", args[0])
			return nil
		},
	}
}
