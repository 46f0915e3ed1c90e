package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cipherxfer/internal/domain"
)

// download <name>: fetch a file from the server.
func downloadCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "download <name>",
		Short: "Download and verify a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := st.wire.Client()
			if err != nil {
				return err
			}
			n, err := c.Download(cmd.Context(), args[0])
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("download rejected: %s not found on server", args[0])
			case errors.Is(err, domain.ErrRejected) && errors.Is(err, domain.ErrAuthentication):
				return fmt.Errorf("download rejected: server did not accept our signature")
			case err != nil:
				return fmt.Errorf("download failed: %w", err)
			}
			out := filepath.Join(st.wire.Config.DownloadDir, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d bytes to %s\n", n, out)
			return nil
		},
	}
}
