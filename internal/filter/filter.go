// Package filter decides which tasks belong to the filtered view.
//
// Everything here is pure: callers pass the current time explicitly so the
// date buckets are deterministic under test.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/tasksync/models"
)

// Bucket is a coarse due-date filter.
type Bucket string

const (
	BucketNone     Bucket = ""
	BucketToday    Bucket = "today"
	BucketThisWeek Bucket = "this-week"
	BucketOverdue  Bucket = "overdue"
)

// WeekSpan is the number of days after today still counted as "this week".
const WeekSpan = 7

// ParseBucket converts user input to a Bucket. "", "none" and "all" clear the
// bucket; "week" is accepted for this-week.
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "all":
		return BucketNone, nil
	case "today":
		return BucketToday, nil
	case "this-week", "week", "thisweek":
		return BucketThisWeek, nil
	case "overdue":
		return BucketOverdue, nil
	default:
		return BucketNone, fmt.Errorf("unknown date filter %q (want today, this-week or overdue)", s)
	}
}

// Criteria is the active filter state. The zero value matches everything.
type Criteria struct {
	Tag    string `json:"tag,omitempty"`
	Bucket Bucket `json:"bucket,omitempty"`
}

// IsZero reports whether no filter is active.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Tag) == "" && c.Bucket == BucketNone
}

// Matches reports whether task passes both the tag and the date filter.
func Matches(task models.Task, c Criteria, now time.Time) bool {
	return MatchesTag(task, c.Tag) && MatchesBucket(task, c.Bucket, now)
}

// MatchesTag reports whether any of the task's tags contains substr,
// ignoring case. substr is matched as typed, surrounding spaces included.
// A blank or whitespace-only substr matches every task.
func MatchesTag(task models.Task, substr string) bool {
	if strings.TrimSpace(substr) == "" {
		return true
	}
	needle := strings.ToLower(substr)
	for _, tag := range task.TagsList() {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// MatchesBucket evaluates the date bucket predicate. Tasks without a due date
// never match a bucket.
func MatchesBucket(task models.Task, b Bucket, now time.Time) bool {
	if b == BucketNone {
		return true
	}
	if task.DueDate == nil {
		return false
	}

	loc := now.Location()
	today := models.CalendarDate(now, loc)
	due := models.CalendarDate(*task.DueDate, loc)

	switch b {
	case BucketToday:
		return due.Equal(today)
	case BucketThisWeek:
		return !due.Before(today) && !due.After(today.AddDate(0, 0, WeekSpan))
	case BucketOverdue:
		return task.IsOverdue(now)
	default:
		return true
	}
}

// Apply returns the tasks matching c, preserving their order.
func Apply(tasks []models.Task, c Criteria, now time.Time) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, c, now) {
			out = append(out, t)
		}
	}
	return out
}
