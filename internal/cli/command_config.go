package cli

import (
	"github.com/picatz/dohgate/internal/config"
	"github.com/spf13/cobra"
)

var CommandConfig = &cobra.Command{
	Use:   "config",
	Short: "Print a config template with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := config.Template()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	CommandRoot.AddCommand(CommandConfig)
}
