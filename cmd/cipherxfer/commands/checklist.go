package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// checklist is the static feature table printed by the checklist command.
var checklist = []struct {
	Feature, Status, Where string
}{
	{"AES-256-CBC encryption", "OK", "internal/crypto"},
	{"RSA-2048 key exchange and signatures", "OK", "internal/crypto"},
	{"SHA-512 integrity check", "OK", "internal/protocol/envelope"},
	{"TCP length-prefixed framing", "OK", "internal/wire"},
	{"Hello/Ready handshake", "OK", "internal/protocol/handshake"},
	{"Packet loss simulation", "OK", "internal/wire"},
	{"Bounded retry with ACK/NACK", "OK", "internal/protocol/retry"},
}

func checklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checklist",
		Short: "Print the protocol feature checklist",
		Args:  cobra.NoArgs,
		// Needs no configuration or keys.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FEATURE\tSTATUS\tWHERE")
			for _, row := range checklist {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Feature, row.Status, row.Where)
			}
			return tw.Flush()
		},
	}
}
