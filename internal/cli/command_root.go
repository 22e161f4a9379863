package cli

import (
	"fmt"

	"github.com/picatz/dohgate/internal/config"
	"github.com/picatz/dohgate/internal/mlog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var CommandRoot = &cobra.Command{
	Use:          "dohgate",
	Short:        `dohgate is a JSON gateway for DNS-over-HTTPS resolvers`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setLogLevel(cmd.Flag("log-lvl").Value.String())
	},
}

func init() {
	CommandRoot.PersistentFlags().String("log-lvl", "info", "log level: trace, debug, info, warn, error")
}

func setLogLevel(s string) error {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	mlog.SetLvl(lvl)
	return nil
}

// loadConfig reads the --config file of cmd. A level from the file applies
// unless --log-lvl was given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("log-lvl") && len(path) > 0 {
		if err := setLogLevel(cfg.Log.Level); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
