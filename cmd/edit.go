/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change a task's title, tags or due date",
	Long: `Change a task. The id may be any unique prefix of the task ID.

Without flags, and in a terminal, you are prompted for a new title.

Examples:
  tasksync edit 3f2a --title "Write final report"
  tasksync edit 3f2a --tags home --due +3d
  tasksync edit 3f2a --clear-due`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

var (
	editTitle    string
	editTags     string
	editDue      string
	editClearDue bool
)

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVarP(&editTags, "tags", "t", "", "replace tags (comma-separated, empty clears)")
	editCmd.Flags().StringVarP(&editDue, "due", "d", "", "new due date (YYYY-MM-DD, today, tomorrow or +Nd)")
	editCmd.Flags().BoolVar(&editClearDue, "clear-due", false, "remove the due date")
	editCmd.MarkFlagsMutuallyExclusive("due", "clear-due")
}

func runEdit(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	changed := flags.Changed("title") || flags.Changed("tags") || flags.Changed("due") || editClearDue
	if !changed && !isTerminal() {
		return fmt.Errorf("nothing to change: use --title, --tags, --due or --clear-due")
	}
	now := time.Now()

	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var ref string
	if len(args) > 0 {
		ref = args[0]
	}
	t, err := pickTask(svc, ref, "Select task to edit", nil)
	if err != nil {
		return err
	}

	if !changed {
		prompt := promptui.Prompt{
			Label:   "Title",
			Default: t.Title,
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("title cannot be empty")
				}
				return nil
			},
		}
		title, err := prompt.Run()
		if err != nil {
			return err
		}
		editTitle = title
		flags.Lookup("title").Changed = true
	}

	if flags.Changed("title") {
		if strings.TrimSpace(editTitle) == "" {
			return fmt.Errorf("title cannot be empty")
		}
		svc.SetTitle(t.ID, editTitle)
	}
	if flags.Changed("tags") {
		svc.SetTags(t.ID, editTags)
	}
	if flags.Changed("due") {
		due, err := parseDue(editDue, now)
		if err != nil {
			return err
		}
		svc.SetDueDate(t.ID, due)
	}
	if editClearDue {
		svc.SetDueDate(t.ID, nil)
	}

	if err := commit(cmd, svc); err != nil {
		return err
	}

	updated, _ := svc.Get(t.ID)
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), toDTO(updated, now))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Updated %q (%s)\n", ui.Icon("✓", ui.StyleSuccess), updated.Title, ui.TruncateID(updated.ID))
	return nil
}
