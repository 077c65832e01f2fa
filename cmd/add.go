/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task to the list and save it.

Examples:
  tasksync add Buy milk
  tasksync add "Write report" --tags work,urgent --due tomorrow
  tasksync add "Renew passport" -d 2025-03-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addTags string
	addDue  string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addTags, "tags", "t", "", "comma-separated tags")
	addCmd.Flags().StringVarP(&addDue, "due", "d", "", "due date (YYYY-MM-DD, today, tomorrow or +Nd)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	now := time.Now()
	due, err := parseDue(addDue, now)
	if err != nil {
		return err
	}

	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	t, _ := svc.Add(title, addTags, due)
	if err := commit(cmd, svc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), toDTO(t, now))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Added %q (%s)\n", ui.Icon("✓", ui.StyleSuccess), t.Title, ui.TruncateID(t.ID))
	return nil
}
