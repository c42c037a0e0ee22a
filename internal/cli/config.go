package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/citadel-app/citadel/internal/daemon"
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the Citadel configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to $CITADEL_HOME/config.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := daemon.ConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := daemon.SaveConfig(daemon.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daemon.LoadConfig()
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}
