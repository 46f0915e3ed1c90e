package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"cipherxfer/internal/crypto"
	"cipherxfer/internal/services/identity"
)

func keygenCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Create or load the client and server identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := identity.CheckPassphrase(st.wire.Config.Passphrase); err != nil {
				return err
			}
			ids, err := st.wire.Identity.Provision()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fp, err := crypto.Fingerprint(id.Public)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", id.Role, fp)
			}
			return nil
		},
	}
}
