/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/josephgoksu/tasksync/internal/config"
	"github.com/josephgoksu/tasksync/internal/logger"
	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// jsonOutput switches command output to JSON.
	jsonOutput bool
	// dataDir overrides the data directory.
	dataDir string
	// ErrNoTasksFound is returned when an interactive selection is attempted but no tasks are available.
	ErrNoTasksFound = errors.New("no tasks found matching your criteria")
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tasksync",
	Short: "tasksync keeps a local task list safely in sync with disk.",
	Long: `tasksync manages a personal task list stored in a single file.

Every change is written atomically with a backup of the previous file, and a
corrupted task file is recovered from that backup automatically. Use the
interactive shell for a session with autosave.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetCommand(cmd.CommandPath())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.tasksync/.tasksync.yaml or $HOME/.tasksync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the task file")

	bindFlags()
}

// bindFlags binds persistent flags to Viper.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

// GetTaskFilePath returns the full path to the tasks file
func GetTaskFilePath() string {
	cfg := GetConfig()
	return config.ResolvePath(cfg.Data.Dir, cfg.Data.File)
}

// GetStore initializes and returns the persistence engine using the unified types.AppConfig.
func GetStore() (*store.FileTaskStore, error) {
	cfg := GetConfig()
	s := store.NewFileTaskStore(nil, nil)

	settings := map[string]string{
		"dataFile":       GetTaskFilePath(),
		"dataFileFormat": cfg.Data.Format,
		"backupFile":     config.ResolvePath(cfg.Data.Dir, cfg.Data.BackupFile),
	}
	if cfg.Lock.Timeout > 0 {
		settings["lockTimeout"] = cfg.Lock.Timeout.String()
	}
	if err := s.Initialize(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize store at %s: %w", settings["dataFile"], err)
	}
	logger.SetDataFile(s.FilePath())
	return s, nil
}

// openService opens the engine and loads the task list into a Service.
// Recovery events are reported on stderr; the caller must Close the store.
func openService(cmd *cobra.Command) (*task.Service, *store.FileTaskStore, error) {
	s, err := GetStore()
	if err != nil {
		return nil, nil, err
	}
	svc := task.NewService(s)
	reload(cmd, svc, s)
	return svc, s, nil
}

// reload loads the task file into svc. Tasks recovered from the backup are
// written back at once, because the damaged primary has been moved aside.
func reload(cmd *cobra.Command, svc *task.Service, s *store.FileTaskStore) {
	res := svc.LoadOnStartup(cmdContext(cmd))
	reportLoad(cmd, res, s)
	if !svc.Dirty() {
		return
	}
	if saved := svc.SaveNow(cmdContext(cmd)); !saved.OK() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: "+friendlyError(saved.Err))
	}
}

func reportLoad(cmd *cobra.Command, res store.LoadResult, s *store.FileTaskStore) {
	w := cmd.ErrOrStderr()
	switch res.Outcome {
	case store.OutcomeRecovered:
		fmt.Fprintf(w, "Warning: %s was unreadable; restored %d task(s) from %s.\n", s.FilePath(), len(res.Tasks), s.BackupPath())
	case store.OutcomeRecoveredEmpty:
		fmt.Fprintln(w, "Warning: "+friendlyError(res.Err))
	}
	if res.Quarantined != "" {
		fmt.Fprintf(w, "The damaged file was kept at %s.\n", res.Quarantined)
	}
	if res.Err != nil {
		LogError("load", res.Err)
	}
}

// commit saves the service and turns a failed save into an error.
func commit(cmd *cobra.Command, svc *task.Service) error {
	res := svc.SaveNow(cmdContext(cmd))
	if res.BackupErr != nil {
		LogError("backup skipped", res.BackupErr)
	}
	if !res.OK() {
		return fmt.Errorf("%s: %w", strings.TrimSuffix(friendlyError(res.Err), "."), res.Err)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
