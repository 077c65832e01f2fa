/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all completed tasks",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var clearYes bool

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if !confirmOrAbort(cmd, "Remove all completed tasks? [y/N]: ", clearYes) {
		return nil
	}

	n := svc.ClearCompleted()
	if n == 0 {
		return reportCount(cmd, "removed", 0, "No completed tasks to remove.")
	}
	if err := commit(cmd, svc); err != nil {
		return err
	}
	return reportCount(cmd, "removed", n, fmt.Sprintf("Removed %d completed task(s).", n))
}
