package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iksnae/fileconv/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInitForce bool

// configCmd groups the config subcommands. It does not require a valid
// config so that a broken file can be repaired with `config set`.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the configuration file",
	Long: `Show or edit the configuration file.

Values are resolved in this order: command-line flags, FILECONV_*
environment variables (a .env file in the working directory is loaded
first), the config file, then built-in defaults.

Keys:
  ` + strings.Join(internal.ConfigKeys(), "\n  "),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			internal.SetVerbose(true)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		shown := *cfg
		if shown.User.Token != "" {
			shown.User.Token = maskSecret(shown.User.Token)
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", configPath, data)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", configPath, err)
		}
		if err := internal.SaveConfig(configPath, internal.DefaultConfig()); err != nil {
			return err
		}
		internal.PrintSuccess("Wrote " + configPath)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one key in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := internal.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		if err := fileCfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := internal.SaveConfig(configPath, fileCfg); err != nil {
			return err
		}
		internal.PrintSuccess(args[0] + " updated")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		if strings.EqualFold(args[0], "user.token") && value != "" {
			value = maskSecret(value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd, configGetCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
}
