/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/tasksync/internal/logger"
	"github.com/spf13/cobra"
)

// crashlogCmd represents the crashlog command
var crashlogCmd = &cobra.Command{
	Use:   "crashlog",
	Short: "List crash logs, or print the most recent one",
	Long: `tasksync writes a crash log to <data dir>/crash_logs when it panics.
Attach the latest one when reporting a bug.`,
	Args: cobra.NoArgs,
	RunE: runCrashlog,
}

var crashlogLast bool

func init() {
	rootCmd.AddCommand(crashlogCmd)

	crashlogCmd.Flags().BoolVar(&crashlogLast, "last", false, "print the most recent crash log")
}

func runCrashlog(cmd *cobra.Command, args []string) error {
	logs, err := logger.ListCrashLogs()
	if err != nil {
		return fmt.Errorf("list crash logs: %w", err)
	}
	out := cmd.OutOrStdout()

	if isJSON() {
		if logs == nil {
			logs = []string{}
		}
		return printJSON(out, map[string][]string{"crashLogs": logs})
	}
	if len(logs) == 0 {
		fmt.Fprintln(out, "No crash logs.")
		return nil
	}
	if crashlogLast {
		content, err := logger.ReadCrashLog(logs[len(logs)-1])
		if err != nil {
			return err
		}
		fmt.Fprint(out, content)
		return nil
	}
	for _, path := range logs {
		fmt.Fprintln(out, path)
	}
	return nil
}
