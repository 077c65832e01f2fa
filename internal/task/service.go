package task

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/josephgoksu/tasksync/internal/filter"
	"github.com/josephgoksu/tasksync/models"
	"github.com/josephgoksu/tasksync/store"
)

// Repository defines the persistence methods required by the Service.
// store.FileTaskStore satisfies it.
type Repository interface {
	Save(ctx context.Context, tasks []models.Task) store.SaveResult
	Load(ctx context.Context) store.LoadResult
}

// Status is the persistence status reported to OnStatus callbacks.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
	StatusError   Status = "error"
)

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for date filters.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service owns the canonical task collection, the filtered view derived from
// it, and the dirty flag that tells whether the collection differs from what
// was last written.
//
// mu guards all state below it. saveMu serializes saves; file I/O runs with mu
// released on a snapshot of the collection. Callbacks are always invoked after
// mu is released, so they may call back into the Service.
type Service struct {
	repo   Repository
	clock  Clock
	logger *slog.Logger

	saveMu sync.Mutex

	mu       sync.Mutex
	tasks    []models.Task
	view     []models.Task
	criteria filter.Criteria
	dirty    bool
	gen      uint64 // bumped on every mutation
	status   Status
	lastSave store.SaveResult
	onStatus []func(Status)
	onView   []func([]models.Task)
}

// NewService creates a Service with an empty collection.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		clock:  RealClock{},
		logger: slog.Default(),
		tasks:  []models.Task{},
		view:   []models.Task{},
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notice carries callbacks to run once mu is released.
type notice struct {
	status   Status
	statusCh bool
	view     []models.Task
	viewCh   bool
	onStatus []func(Status)
	onView   []func([]models.Task)
}

func (n notice) deliver() {
	if n.statusCh {
		for _, fn := range n.onStatus {
			fn(n.status)
		}
	}
	if n.viewCh {
		for _, fn := range n.onView {
			fn(cloneTasks(n.view))
		}
	}
}

func (s *Service) noticeLocked() notice {
	return notice{onStatus: s.onStatus, onView: s.onView}
}

// setStatusLocked records st and returns a notice if it changed.
func (s *Service) setStatusLocked(n *notice, st Status) {
	if s.status == st {
		return
	}
	s.status = st
	n.status = st
	n.statusCh = true
}

func (s *Service) recomputeLocked(n *notice) {
	s.view = filter.Apply(s.tasks, s.criteria, s.clock.Now())
	n.view = s.view
	n.viewCh = true
}

// changedLocked marks the collection dirty and refreshes the view.
func (s *Service) changedLocked() notice {
	n := s.noticeLocked()
	s.dirty = true
	s.gen++
	// A save in flight reports its own outcome; the generation check turns
	// it back into unsaved.
	if s.status != StatusSaving {
		s.setStatusLocked(&n, StatusUnsaved)
	}
	s.recomputeLocked(&n)
	return n
}

// viewOnlyLocked refreshes the view without touching the dirty flag.
func (s *Service) viewOnlyLocked() notice {
	n := s.noticeLocked()
	s.recomputeLocked(&n)
	return n
}

func (s *Service) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends a new task. A blank title is ignored and reported as false.
func (s *Service) Add(title, tags string, dueDate *time.Time) (models.Task, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, false
	}
	t := models.NewTask(title, tags, dueDate)
	if err := models.ValidateStruct(t); err != nil {
		s.logger.Warn("rejected invalid task", "error", err)
		return models.Task{}, false
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	n := s.changedLocked()
	s.mu.Unlock()

	n.deliver()
	s.logger.Debug("task added", "id", t.ID)
	return t.Clone(), true
}

// Remove deletes the task with the given id. An unknown id is a no-op.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	n := s.changedLocked()
	s.mu.Unlock()

	n.deliver()
	s.logger.Debug("task removed", "id", id)
	return true
}

// SetTitle renames a task. A blank title or unknown id is ignored.
func (s *Service) SetTitle(id, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	return s.update(id, func(t *models.Task) { t.Title = title })
}

// SetCompleted sets the completion flag of one task.
func (s *Service) SetCompleted(id string, done bool) bool {
	return s.update(id, func(t *models.Task) { t.Completed = done })
}

// SetTags replaces the tags of one task with the canonical form of tags.
func (s *Service) SetTags(id, tags string) bool {
	return s.update(id, func(t *models.Task) { t.SetTagsFromList(models.ParseTags(tags)) })
}

// SetDueDate replaces the due date of one task. A nil date clears it.
func (s *Service) SetDueDate(id string, due *time.Time) bool {
	return s.update(id, func(t *models.Task) {
		if due == nil {
			t.DueDate = nil
			return
		}
		d := *due
		t.DueDate = &d
	})
}

func (s *Service) update(id string, fn func(*models.Task)) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.tasks[i])
	n := s.changedLocked()
	s.mu.Unlock()

	n.deliver()
	return true
}

// MarkAllCompleted completes every task and returns how many there are.
// The store becomes dirty only when it holds at least one task.
func (s *Service) MarkAllCompleted() int {
	s.mu.Lock()
	count := len(s.tasks)
	var n notice
	if count > 0 {
		for i := range s.tasks {
			s.tasks[i].Completed = true
		}
		n = s.changedLocked()
	} else {
		n = s.viewOnlyLocked()
	}
	s.mu.Unlock()

	n.deliver()
	return count
}

// ClearCompleted removes every completed task and returns how many went.
// The store becomes dirty only when something was removed.
func (s *Service) ClearCompleted() int {
	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	var n notice
	if removed > 0 {
		n = s.changedLocked()
	} else {
		n = s.viewOnlyLocked()
	}
	s.mu.Unlock()

	n.deliver()
	return removed
}

// Replace swaps the whole collection, marking the store dirty.
func (s *Service) Replace(tasks []models.Task) {
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	n := s.changedLocked()
	s.mu.Unlock()

	n.deliver()
}

// SetFilter replaces the active filter. The collection and dirty flag are untouched.
func (s *Service) SetFilter(c filter.Criteria) {
	s.mu.Lock()
	s.criteria = c
	n := s.viewOnlyLocked()
	s.mu.Unlock()

	n.deliver()
}

// Refresh recomputes the view, e.g. after the date rolled over.
func (s *Service) Refresh() {
	s.mu.Lock()
	n := s.viewOnlyLocked()
	s.mu.Unlock()

	n.deliver()
}

// Filter returns the active filter.
func (s *Service) Filter() filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// FilteredView returns a copy of the tasks matching the active filter.
func (s *Service) FilteredView() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.view)
}

// Tasks returns a copy of the whole collection in insertion order.
func (s *Service) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Get returns a copy of the task with the given id.
func (s *Service) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// Len returns the number of tasks.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Dirty reports whether there are changes not yet written.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Status returns the current persistence status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSave returns the result of the most recent save attempt.
func (s *Service) LastSave() store.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}

// OnStatus registers a callback for status changes.
func (s *Service) OnStatus(fn func(Status)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = append(s.onStatus, fn)
}

// OnViewChange registers a callback that receives the recomputed view.
func (s *Service) OnViewChange(fn func([]models.Task)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onView = append(s.onView, fn)
}

// LoadOnStartup replaces the collection with what the repository holds.
// Tasks recovered from the backup leave the store dirty so the next save
// rewrites the primary.
func (s *Service) LoadOnStartup(ctx context.Context) store.LoadResult {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	res := s.repo.Load(ctx)
	if !res.Usable() {
		s.logger.Warn("load returned no usable tasks", "outcome", string(res.Outcome), "error", res.Err)
		return res
	}

	s.mu.Lock()
	s.tasks = cloneTasks(res.Tasks)
	s.gen++
	s.dirty = res.Outcome == store.OutcomeRecovered || res.Repaired > 0
	n := s.noticeLocked()
	if s.dirty {
		s.setStatusLocked(&n, StatusUnsaved)
	} else {
		s.setStatusLocked(&n, StatusIdle)
	}
	s.recomputeLocked(&n)
	s.mu.Unlock()

	n.deliver()
	switch res.Outcome {
	case store.OutcomeRecovered:
		s.logger.Warn("primary task file was corrupt; tasks restored from backup", "count", len(res.Tasks), "cause", res.Err)
	case store.OutcomeRecoveredEmpty:
		s.logger.Warn("no usable task file; starting empty", "cause", res.Err)
	}
	return res
}

// SaveNow writes the collection, waiting for any save already in flight.
func (s *Service) SaveNow(ctx context.Context) store.SaveResult {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.save(ctx)
}

// SaveAsync runs SaveNow on its own goroutine. The channel receives exactly
// one result and is then closed.
func (s *Service) SaveAsync(ctx context.Context) <-chan store.SaveResult {
	ch := make(chan store.SaveResult, 1)
	go func() {
		defer close(ch)
		ch <- s.SaveNow(ctx)
	}()
	return ch
}

// TrySave saves unless another save is in flight, in which case it returns
// immediately with ok=false.
func (s *Service) TrySave(ctx context.Context) (store.SaveResult, bool) {
	if !s.saveMu.TryLock() {
		return store.SaveResult{}, false
	}
	defer s.saveMu.Unlock()
	return s.save(ctx), true
}

// save must be called with saveMu held.
func (s *Service) save(ctx context.Context) store.SaveResult {
	s.mu.Lock()
	snapshot := cloneTasks(s.tasks)
	gen := s.gen
	n := s.noticeLocked()
	s.setStatusLocked(&n, StatusSaving)
	s.mu.Unlock()
	n.deliver()

	res := s.repo.Save(ctx, snapshot)

	s.mu.Lock()
	s.lastSave = res
	n = s.noticeLocked()
	switch {
	case !res.OK():
		s.setStatusLocked(&n, StatusError)
	case s.gen == gen:
		s.dirty = false
		s.setStatusLocked(&n, StatusSaved)
	default:
		// Mutated while writing; the new state still has to go out.
		s.setStatusLocked(&n, StatusUnsaved)
	}
	s.mu.Unlock()
	n.deliver()

	if res.BackupErr != nil {
		s.logger.Warn("saved without a fresh backup", "error", res.BackupErr)
	}
	return res
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
