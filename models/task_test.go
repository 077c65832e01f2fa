package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "whitespace only", in: "   ", want: []string{}},
		{name: "single", in: "work", want: []string{"work"}},
		{name: "trims", in: " work ,  urgent ", want: []string{"work", "urgent"}},
		{name: "drops empties", in: "a,,b, ,", want: []string{"a", "b"}},
		{name: "dedupes keeping first", in: "b, a, b, a", want: []string{"b", "a"}},
		{name: "case sensitive", in: "Work, work", want: []string{"Work", "work"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.in))
		})
	}
}

func TestTagsRoundTripIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"work, urgent",
		",,,",
		" x ,y,x, Y ,",
		"home,home , home",
		"a b, c\td ,a b",
	}
	for _, s := range inputs {
		first := ParseTags(s)
		again := ParseTags(FormatTags(first))
		assert.Equal(t, first, again, "round trip of %q", s)
	}
}

func TestSetTagsFromList(t *testing.T) {
	var task Task
	task.SetTagsFromList([]string{" work", "urgent ", "", "work"})
	assert.Equal(t, "work, urgent", task.Tags)
	assert.Equal(t, []string{"work", "urgent"}, task.TagsList())
}

func TestNewTask(t *testing.T) {
	due := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	task := NewTask("Write report", "work,work, urgent", &due)

	_, err := uuid.Parse(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.False(t, task.Completed)
	assert.Equal(t, "work, urgent", task.Tags)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))

	// The task must not alias the caller's time value.
	due = due.AddDate(1, 0, 0)
	assert.Equal(t, 2024, task.DueDate.Year())

	other := NewTask("Another", "", nil)
	assert.NotEqual(t, task.ID, other.ID)
	assert.Nil(t, other.DueDate)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		ts := time.Date(2024, 6, d, 8, 0, 0, 0, time.UTC)
		return &ts
	}

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{name: "no due date", task: Task{}, want: false},
		{name: "yesterday", task: Task{DueDate: day(9)}, want: true},
		{name: "earlier today", task: Task{DueDate: day(10)}, want: false},
		{name: "tomorrow", task: Task{DueDate: day(11)}, want: false},
		{name: "completed", task: Task{DueDate: day(1), Completed: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOverdue(now))
		})
	}
}

func TestDueDateDisplay(t *testing.T) {
	assert.Equal(t, "", Task{}.DueDateDisplay())
	due := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Jun 05, 2024", Task{DueDate: &due}.DueDateDisplay())
}

func TestTaskJSON(t *testing.T) {
	t.Run("derived fields are not written", func(t *testing.T) {
		due := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
		data, err := json.Marshal(Task{ID: "a", Title: "t", Tags: "x", DueDate: &due})
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.ElementsMatch(t, []string{"id", "title", "isCompleted", "tags", "dueDate"}, keys(raw))
		assert.Equal(t, "2024-06-10T00:00:00Z", raw["dueDate"])
	})

	t.Run("nil due date is null", func(t *testing.T) {
		data, err := json.Marshal(Task{ID: "a"})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"dueDate":null`)
	})

	t.Run("missing optional fields take defaults", func(t *testing.T) {
		var task Task
		require.NoError(t, json.Unmarshal([]byte(`{"id":"a","title":"t","extra":42}`), &task))
		assert.Equal(t, Task{ID: "a", Title: "t"}, task)
	})

	t.Run("completed alias", func(t *testing.T) {
		var task Task
		require.NoError(t, json.Unmarshal([]byte(`{"id":"a","completed":true}`), &task))
		assert.True(t, task.Completed)
	})

	t.Run("pascal case and zone-less date", func(t *testing.T) {
		var task Task
		doc := `{"Id":"a","Title":"t","IsCompleted":true,"Tags":"x","DueDate":"2024-06-10T00:00:00"}`
		require.NoError(t, json.Unmarshal([]byte(doc), &task))
		assert.Equal(t, "a", task.ID)
		assert.True(t, task.Completed)
		require.NotNil(t, task.DueDate)
		y, m, d := task.DueDate.Date()
		assert.Equal(t, []int{2024, 6, 10}, []int{y, int(m), d})
	})

	t.Run("malformed due date fails", func(t *testing.T) {
		var task Task
		assert.Error(t, json.Unmarshal([]byte(`{"id":"a","dueDate":"tomorrow-ish"}`), &task))
	})
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(NewTask("ok", "", nil)))
	assert.Error(t, ValidateStruct(Task{Title: "no id"}))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
