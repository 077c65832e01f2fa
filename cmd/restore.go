/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/josephgoksu/tasksync/store"
	"github.com/spf13/cobra"
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the task list with the backup copy",
	Long: `Replace the task list with the backup written before the last save.

The current file becomes the new backup, so running restore twice
switches back.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

var restoreYes bool

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the confirmation prompt")
}

func runRestore(cmd *cobra.Command, args []string) error {
	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	res := s.LoadBackup(cmdContext(cmd))
	switch res.Outcome {
	case store.OutcomeLoaded:
	case store.OutcomeBackupMissing:
		return fmt.Errorf("no backup found at %s", s.BackupPath())
	default:
		return fmt.Errorf("backup at %s is unreadable: %w", s.BackupPath(), res.Err)
	}

	if !confirmOrAbort(cmd, fmt.Sprintf("Replace %d task(s) with %d from the backup? [y/N]: ", svc.Len(), len(res.Tasks)), restoreYes) {
		return nil
	}

	svc.Replace(res.Tasks)
	if err := commit(cmd, svc); err != nil {
		return err
	}
	return reportCount(cmd, "restored", len(res.Tasks),
		fmt.Sprintf("%s Restored %d task(s) from %s.", ui.Icon("✓", ui.StyleSuccess), len(res.Tasks), s.BackupPath()))
}
