/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/josephgoksu/tasksync/models"
	"github.com/spf13/cobra"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:     "rm [id...]",
	Aliases: []string{"delete", "remove"},
	Short:   "Delete tasks",
	Long: `Delete one or more tasks. Ids may be unique prefixes.

The previous task file is kept as a backup, so "tasksync restore" can
undo the last change.`,
	RunE: runRm,
}

var rmYes bool

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "skip the confirmation prompt")
}

func runRm(cmd *cobra.Command, args []string) error {
	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var targets []models.Task
	if len(args) == 0 {
		t, err := pickTask(svc, "", "Select task to delete", nil)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}
	for _, ref := range args {
		t, err := resolveTask(svc, ref)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	if !confirmOrAbort(cmd, fmt.Sprintf("Delete %d task(s)? [y/N]: ", len(targets)), rmYes) {
		return nil
	}

	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		if svc.Remove(t.ID) {
			ids = append(ids, t.ID)
		}
	}
	if err := commit(cmd, svc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": ids})
	}
	for _, t := range targets {
		fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %q (%s)\n", ui.Icon("✗", ui.StyleError), t.Title, ui.TruncateID(t.ID))
	}
	return nil
}
