/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/josephgoksu/tasksync/models"
	"github.com/spf13/cobra"
)

// doneCmd represents the done command
var doneCmd = &cobra.Command{
	Use:   "done [id...]",
	Short: "Mark tasks as completed",
	Long: `Mark one or more tasks as completed. Ids may be unique prefixes.

Examples:
  tasksync done 3f2a
  tasksync done 3f2a 9c01
  tasksync done --all`,
	RunE: runDone,
}

// undoneCmd represents the undone command
var undoneCmd = &cobra.Command{
	Use:     "undone [id...]",
	Aliases: []string{"reopen"},
	Short:   "Mark tasks as not completed",
	RunE:    runUndone,
}

var doneAll bool

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)

	doneCmd.Flags().BoolVarP(&doneAll, "all", "a", false, "mark every task as completed")
}

func runDone(cmd *cobra.Command, args []string) error {
	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if doneAll {
		if len(args) > 0 {
			return fmt.Errorf("--all cannot be combined with task ids")
		}
		n := svc.MarkAllCompleted()
		if n == 0 {
			return reportCount(cmd, "completed", 0, "No tasks to complete.")
		}
		if err := commit(cmd, svc); err != nil {
			return err
		}
		return reportCount(cmd, "completed", n, fmt.Sprintf("Marked %d task(s) as completed.", n))
	}

	changed, err := setCompletion(cmd, svc, args, true)
	if err != nil {
		return err
	}
	return printCompletion(cmd, changed, "Completed")
}

func runUndone(cmd *cobra.Command, args []string) error {
	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	changed, err := setCompletion(cmd, svc, args, false)
	if err != nil {
		return err
	}
	return printCompletion(cmd, changed, "Reopened")
}

// setCompletion resolves every ref before changing anything, then saves once.
func setCompletion(cmd *cobra.Command, svc *task.Service, refs []string, done bool) ([]models.Task, error) {
	var targets []models.Task
	if len(refs) == 0 {
		label := "Select task to complete"
		if !done {
			label = "Select task to reopen"
		}
		t, err := pickTask(svc, "", label, func(t models.Task) bool { return t.Completed != done })
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	for _, ref := range refs {
		t, err := resolveTask(svc, ref)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	for _, t := range targets {
		svc.SetCompleted(t.ID, done)
	}
	if err := commit(cmd, svc); err != nil {
		return nil, err
	}

	out := make([]models.Task, 0, len(targets))
	for _, t := range targets {
		if updated, ok := svc.Get(t.ID); ok {
			out = append(out, updated)
		}
	}
	return out, nil
}

func printCompletion(cmd *cobra.Command, tasks []models.Task, verb string) error {
	if isJSON() {
		ids := make([]string, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"updated": ids})
	}
	for _, t := range tasks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q (%s)\n", ui.Icon("✓", ui.StyleSuccess), verb, t.Title, ui.TruncateID(t.ID))
	}
	return nil
}

// reportCount prints the outcome of a bulk operation.
func reportCount(cmd *cobra.Command, key string, n int, msg string) error {
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]int{key: n})
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
