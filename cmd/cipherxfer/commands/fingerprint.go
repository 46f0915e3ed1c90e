package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"cipherxfer/internal/domain"
)

func fingerprintCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print public key fingerprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, role := range []domain.Role{domain.RoleClient, domain.RoleServer} {
				fp, err := st.wire.Identity.Fingerprint(role)
				if err != nil {
					return fmt.Errorf("%s: %w (run keygen first)", role, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", role, fp)
			}
			return nil
		},
	}
}
