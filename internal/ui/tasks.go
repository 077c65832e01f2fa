package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/tasksync/internal/filter"
	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Checkbox renders the completion flag.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// DueCell renders a due date with an overdue or today marker.
func DueCell(t models.Task, now time.Time) string {
	if t.DueDate == nil {
		return ""
	}
	due := t.DueDateDisplay()
	switch {
	case t.IsOverdue(now):
		return due + " (overdue)"
	case !t.Completed && filter.MatchesBucket(t, filter.BucketToday, now):
		return due + " (today)"
	default:
		return due
	}
}

// RenderTasks renders tasks as a table. Completed rows are struck through,
// overdue rows are red and rows due today are highlighted.
func RenderTasks(tasks []models.Task, now time.Time) string {
	table := &Table{
		Headers:  []string{"", "ID", "Title", "Tags", "Due"},
		MaxWidth: 48,
	}
	for _, t := range tasks {
		table.Rows = append(table.Rows, []string{
			Checkbox(t.Completed),
			TruncateID(t.ID),
			t.Title,
			t.Tags,
			DueCell(t, now),
		})
	}
	table.RowStyle = func(i int) lipgloss.Style {
		t := tasks[i]
		switch {
		case t.Completed:
			return StyleDone
		case t.IsOverdue(now):
			return StyleOverdue
		case filter.MatchesBucket(t, filter.BucketToday, now):
			return StyleDueToday
		default:
			return StyleText
		}
	}
	return table.Render()
}

// StatusBadge renders the save status of the store.
func StatusBadge(st task.Status) string {
	switch st {
	case task.StatusSaved:
		return StyleBadgeSaved.Render("● saved")
	case task.StatusUnsaved:
		return StyleBadgeUnsaved.Render("● unsaved")
	case task.StatusSaving:
		return StyleBadgeSaving.Render("◌ saving")
	case task.StatusError:
		return StyleBadgeError.Render("✗ save failed")
	default:
		return StyleBadgeSaving.Render("○ idle")
	}
}

// BucketLabel returns a display label such as "This Week".
func BucketLabel(b filter.Bucket) string {
	if b == filter.BucketNone {
		return "Any Date"
	}
	return titleCaser.String(strings.ReplaceAll(string(b), "-", " "))
}

// FilterSummary describes the active filter, or "" when none is set.
func FilterSummary(c filter.Criteria) string {
	if c.IsZero() {
		return ""
	}
	var parts []string
	if strings.TrimSpace(c.Tag) != "" {
		parts = append(parts, fmt.Sprintf("tag contains %q", c.Tag))
	}
	if c.Bucket != filter.BucketNone {
		parts = append(parts, "due "+BucketLabel(c.Bucket))
	}
	return "Filter: " + strings.Join(parts, " and ")
}

// Summary renders the footer line under a task table.
func Summary(shown []models.Task, total int) string {
	done := 0
	for _, t := range shown {
		if t.Completed {
			done++
		}
	}
	noun := "tasks"
	if total == 1 {
		noun = "task"
	}
	if len(shown) == total {
		return StyleSubtle.Render(fmt.Sprintf("%d %s, %d done", total, noun, done))
	}
	return StyleSubtle.Render(fmt.Sprintf("%d of %d %s shown, %d done", len(shown), total, noun, done))
}
