package commands

import (
	"context"

	"github.com/spf13/cobra"

	"cipherxfer/internal/app"
)

// state is shared by the root command and its subcommands.
type state struct {
	configPath string
	flags      app.Config
	wire       *app.Wire
}

// ExecuteContext runs the CLI with os.Args. Cancelling ctx aborts the
// running transfer.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	st := &state{flags: app.Default()}

	root := &cobra.Command{
		Use:           "cipherxfer",
		Short:         "Secure file transfer client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Resolve(st.configPath, cmd.Flags(), st.flags)
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.LogLevel, cfg.LogColor, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st.wire = app.NewWire(cfg, log)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st.wire == nil {
				return nil
			}
			return st.wire.Close()
		},
	}

	root.PersistentFlags().StringVarP(&st.configPath, "config", "c", "", "YAML config file")
	st.flags.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		uploadCmd(st),
		downloadCmd(st),
		keygenCmd(st),
		fingerprintCmd(st),
		checklistCmd(),
	)
	return root
}
