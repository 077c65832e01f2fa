package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DueDateDisplayLayout is the layout used by DueDateDisplay.
const DueDateDisplayLayout = "Jan 02, 2006"

// Task represents one to-do item.
type Task struct {
	ID        string     `json:"id" yaml:"id" toml:"id" validate:"required"`
	Title     string     `json:"title" yaml:"title" toml:"title"`
	Completed bool       `json:"isCompleted" yaml:"isCompleted" toml:"isCompleted"`
	Tags      string     `json:"tags" yaml:"tags" toml:"tags"`
	DueDate   *time.Time `json:"dueDate" yaml:"dueDate,omitempty" toml:"dueDate,omitempty"`
}

// NewTask creates a task with a fresh ID. Tags are stored in canonical form.
func NewTask(title, tags string, dueDate *time.Time) Task {
	t := Task{
		ID:    NewID(),
		Title: title,
	}
	t.SetTagsFromList(ParseTags(tags))
	if dueDate != nil {
		d := *dueDate
		t.DueDate = &d
	}
	return t
}

// NewID returns a new task identifier.
func NewID() string {
	return uuid.NewString()
}

// TagsList returns the parsed, deduplicated tag list.
func (t Task) TagsList() []string {
	return ParseTags(t.Tags)
}

// SetTagsFromList stores tags in canonical comma-delimited form.
func (t *Task) SetTagsFromList(tags []string) {
	t.Tags = FormatTags(tags)
}

// IsOverdue reports whether the task is past due relative to now.
// Only calendar dates are compared, in now's location.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return CalendarDate(*t.DueDate, now.Location()).Before(CalendarDate(now, now.Location()))
}

// DueDateDisplay formats the due date for display, or returns "" if unset.
func (t Task) DueDateDisplay() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DueDateDisplayLayout)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return c
}

// CalendarDate truncates ts to midnight of its date in loc.
func CalendarDate(ts time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// taskJSON is the wire form of Task. Completed is also accepted under "completed".
type taskJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	IsCompleted *bool     `json:"isCompleted,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	Tags        string    `json:"tags"`
	DueDate     Timestamp `json:"dueDate"`
}

// MarshalJSON writes the persisted fields only.
func (t Task) MarshalJSON() ([]byte, error) {
	done := t.Completed
	return json.Marshal(taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		IsCompleted: &done,
		Tags:        t.Tags,
		DueDate:     Timestamp{Time: t.DueDate},
	})
}

// UnmarshalJSON reads a task, leaving absent fields at their defaults.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Task{
		ID:      w.ID,
		Title:   w.Title,
		Tags:    w.Tags,
		DueDate: w.DueDate.Time,
	}
	switch {
	case w.IsCompleted != nil:
		t.Completed = *w.IsCompleted
	case w.Completed != nil:
		t.Completed = *w.Completed
	}
	return nil
}

// Timestamp is a nullable time that tolerates zone-less ISO-8601 values.
type Timestamp struct {
	Time *time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s using the accepted layouts. Values without a zone are
// interpreted in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// MarshalJSON writes RFC 3339 or null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

// UnmarshalJSON accepts null, "" and any layout in timestampLayouts.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ts.Time = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		ts.Time = nil
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	ts.Time = &parsed
	return nil
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}
