/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/tasksync/internal/config"
	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

// configShowCmd shows current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write a commented config file holding the default settings.

By default the file is ./.tasksync/.tasksync.yaml, which also makes
./.tasksync the data directory for this project. Use --global for
$HOME/.tasksync.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		if err := config.SetConfigValue(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s (%s)\n", ui.Icon("✓", ui.StyleSuccess), args[0], args[1], path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value from the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		value, err := config.GetConfigValue(path, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var (
	configGlobal bool
	configForce  bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd, configGetCmd)

	configCmd.PersistentFlags().BoolVar(&configGlobal, "global", false, "use $HOME/.tasksync.yaml")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}

// configTarget picks the file that init/set/get operate on.
func configTarget() (string, error) {
	switch {
	case configGlobal:
		return config.GlobalConfigPath()
	case viper.ConfigFileUsed() != "":
		return viper.ConfigFileUsed(), nil
	default:
		return config.DefaultConfigPath(), nil
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if configGlobal {
		p, err := config.GlobalConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := config.WriteDefaultConfig(path, "", configForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.Icon("✓", ui.StyleSuccess), path)
	return nil
}

type effectiveConfig struct {
	ConfigFile string `json:"configFile" yaml:"configFile"`
	DataFile   string `json:"dataFile" yaml:"dataFile"`
	BackupFile string `json:"backupFile" yaml:"backupFile"`
	Format     string `json:"format" yaml:"format"`
	Autosave   bool   `json:"autosave" yaml:"autosave"`
	Interval   string `json:"autosaveInterval" yaml:"autosaveInterval"`
	Lock       string `json:"lockTimeout" yaml:"lockTimeout"`
	LogLevel   string `json:"logLevel" yaml:"logLevel"`
	LogFormat  string `json:"logFormat" yaml:"logFormat"`
}

func runConfigShow(cmd *cobra.Command) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	cfg := GetConfig()
	eff := effectiveConfig{
		ConfigFile: viper.ConfigFileUsed(),
		DataFile:   s.FilePath(),
		BackupFile: s.BackupPath(),
		Format:     s.Format(),
		Autosave:   cfg.Autosave.Enabled,
		Interval:   cfg.Autosave.Interval.String(),
		Lock:       cfg.Lock.Timeout.String(),
		LogLevel:   cfg.Log.Level,
		LogFormat:  cfg.Log.Format,
	}
	if eff.ConfigFile == "" {
		eff.ConfigFile = "(none)"
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), eff)
	}
	out, err := yaml.Marshal(eff)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
