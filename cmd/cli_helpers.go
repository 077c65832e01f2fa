package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/josephgoksu/tasksync/internal/task"
	"github.com/josephgoksu/tasksync/internal/ui"
	"github.com/josephgoksu/tasksync/internal/util"
	"github.com/josephgoksu/tasksync/models"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func isJSON() bool {
	return viper.GetBool("json")
}

func isVerbose() bool {
	return viper.GetBool("verbose")
}

// isTerminal reports whether both stdin and stdout are terminals, which is
// required for interactive prompts.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// taskDTO is the --json form of a task, with derived fields included.
type taskDTO struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"isCompleted"`
	Tags      []string   `json:"tags"`
	DueDate   *time.Time `json:"dueDate"`
	Overdue   bool       `json:"overdue"`
}

func toDTO(t models.Task, now time.Time) taskDTO {
	return taskDTO{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Tags:      t.TagsList(),
		DueDate:   t.DueDate,
		Overdue:   t.IsOverdue(now),
	}
}

func toDTOs(tasks []models.Task, now time.Time) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toDTO(t, now))
	}
	return out
}

// parseDue accepts "today", "tomorrow", "+Nd" and the stored date layouts.
// An empty string yields nil.
func parseDue(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	today := models.CalendarDate(now, now.Location())
	var due time.Time
	switch {
	case s == "":
		return nil, nil
	case s == "today":
		due = today
	case s == "tomorrow":
		due = today.AddDate(0, 0, 1)
	case strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d"):
		var n int
		if _, err := fmt.Sscanf(s, "+%dd", &n); err != nil || n < 0 {
			return nil, fmt.Errorf("invalid relative date %q (use +Nd)", s)
		}
		due = today.AddDate(0, 0, n)
	default:
		parsed, err := models.ParseTimestamp(s)
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q (use YYYY-MM-DD, today, tomorrow or +Nd)", s)
		}
		due = parsed
	}
	return &due, nil
}

// resolveTask finds a task by full ID or unique ID prefix.
func resolveTask(svc *task.Service, ref string) (models.Task, error) {
	tasks := svc.Tasks()
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	id, err := util.ResolveID(ids, ref)
	if err != nil {
		return models.Task{}, err
	}
	t, _ := svc.Get(id)
	return t, nil
}

// pickTask resolves ref, or prompts for a task when ref is empty and a
// terminal is attached. keep narrows the choices.
func pickTask(svc *task.Service, ref, label string, keep func(models.Task) bool) (models.Task, error) {
	if ref != "" {
		return resolveTask(svc, ref)
	}
	if !isTerminal() {
		return models.Task{}, fmt.Errorf("a task id is required when not running in a terminal")
	}
	var choices []models.Task
	for _, t := range svc.Tasks() {
		if keep == nil || keep(t) {
			choices = append(choices, t)
		}
	}
	return selectTaskInteractive(choices, label)
}

// selectTaskInteractive presents a prompt to the user to select a task from a list.
func selectTaskInteractive(tasks []models.Task, label string) (models.Task, error) {
	if len(tasks) == 0 {
		return models.Task{}, ErrNoTasksFound
	}

	type item struct {
		ID, Short, Title, Tags, Due, Box string
	}
	items := make([]item, len(tasks))
	for i, t := range tasks {
		items[i] = item{
			ID:    t.ID,
			Short: ui.TruncateID(t.ID),
			Title: t.Title,
			Tags:  t.Tags,
			Due:   t.DueDateDisplay(),
			Box:   ui.Checkbox(t.Completed),
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Box }} {{ .Title | cyan }} ({{ .Short }})`,
		Inactive: `  {{ .Box }} {{ .Title | faint }} ({{ .Short }})`,
		Selected: `{{ "✔" | green }} {{ .Title | faint }} ({{ .Short }})`,
		Details: `
--------- Task ----------
{{ "ID:\t" | faint }} {{ .ID }}
{{ "Tags:\t" | faint }} {{ .Tags }}
{{ "Due:\t" | faint }} {{ .Due }}`,
	}

	searcher := func(input string, index int) bool {
		t := tasks[index]
		input = strings.ToLower(input)
		return strings.Contains(strings.ToLower(t.Title), input) || strings.HasPrefix(t.ID, input)
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return models.Task{}, err // includes promptui.ErrInterrupt
	}
	return tasks[i], nil
}

// confirmOrAbort asks for y/yes on the command's input. JSON mode and
// non-interactive runs skip the question.
func confirmOrAbort(cmd *cobra.Command, prompt string, skip bool) bool {
	if skip || isJSON() || !isTerminal() {
		return true
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return false
	}
	return true
}
