/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/josephgoksu/tasksync/internal/filter"
	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks, optionally narrowed by tag and due date.

The tag filter matches any tag containing the text, ignoring case.
Date filters: today, this-week, overdue.

Examples:
  tasksync list
  tasksync list --tag work
  tasksync list --due overdue`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listTag string
	listDue string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listTag, "tag", "", "show tasks with a tag containing this text")
	listCmd.Flags().StringVar(&listDue, "due", "", "show tasks due: today, this-week or overdue")
}

func runList(cmd *cobra.Command, args []string) error {
	bucket, err := filter.ParseBucket(listDue)
	if err != nil {
		return err
	}

	svc, s, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	svc.SetFilter(filter.Criteria{Tag: listTag, Bucket: bucket})
	renderView(cmd, svc, time.Now())
	return nil
}

// renderView prints the filtered view of svc, honoring --json.
func renderView(cmd *cobra.Command, svc *task.Service, now time.Time) {
	out := cmd.OutOrStdout()
	view := svc.FilteredView()
	if isJSON() {
		_ = printJSON(out, toDTOs(view, now))
		return
	}
	if summary := ui.FilterSummary(svc.Filter()); summary != "" {
		fmt.Fprintln(out, ui.StyleSubtle.Render(summary))
	}
	if len(view) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}
	fmt.Fprint(out, ui.RenderTasks(view, now))
	fmt.Fprintln(out, ui.Summary(view, svc.Len()))
}
