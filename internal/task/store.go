package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/extract"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
)

// ErrNotFound is returned for unknown or already swept task ids.
var ErrNotFound = errors.New("task not found")

// TransitionError reports an attempt to move a task backwards or out of a
// terminal state.
type TransitionError struct {
	TaskID string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s: illegal transition %s -> %s", e.TaskID, e.From, e.To)
}

// Store keeps tasks in memory. Completed tasks are retained for a window and
// then swept.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*Task
	order     []string
	retention time.Duration
	now       func() time.Time
}

// NewStore builds a store that retains terminal tasks for retention. A zero
// retention keeps tasks until process exit.
func NewStore(retention time.Duration) *Store {
	return &Store{
		items:     make(map[string]*Task),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new pending task for a compiled plan.
func (s *Store) Create(_ context.Context, goal string, category catalog.Category, p plan.Plan) (Task, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return Task{}, errors.New("goal is required")
	}
	t := &Task{
		ID:        uuid.NewString(),
		Goal:      goal,
		Category:  category,
		Status:    StatusPending,
		Plan:      p,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.items[t.ID] = t
	s.order = append(s.order, t.ID)
	s.mu.Unlock()
	return *t, nil
}

// Start moves a pending task to running.
func (s *Store) Start(_ context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	if t.Status != StatusPending {
		return Task{}, &TransitionError{TaskID: id, From: t.Status, To: StatusRunning}
	}
	started := s.now().UTC()
	t.Status = StatusRunning
	t.StartedAt = &started
	return *t, nil
}

// AppendOutcome records one step trace entry on a running task.
func (s *Store) AppendOutcome(_ context.Context, id string, outcome StepOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if t.Status != StatusRunning {
		return fmt.Errorf("task %s: cannot trace step in status %s", id, t.Status)
	}
	t.Steps = append(t.Steps, outcome)
	return nil
}

// CompleteInput carries everything a terminal transition records.
type CompleteInput struct {
	Status        Status
	Results       []extract.Result
	Error         string
	ScreenshotRef string
}

// Complete moves a running task to a terminal state. Terminal tasks never
// change again.
func (s *Store) Complete(_ context.Context, id string, input CompleteInput) (Task, error) {
	if !input.Status.Terminal() {
		return Task{}, fmt.Errorf("task %s: %q is not a terminal status", id, input.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	if t.Status != StatusRunning {
		return Task{}, &TransitionError{TaskID: id, From: t.Status, To: input.Status}
	}
	completed := s.now().UTC()
	t.Status = input.Status
	t.Results = input.Results
	t.Error = input.Error
	t.ScreenshotRef = input.ScreenshotRef
	t.CompletedAt = &completed
	return *t, nil
}

// Discard removes a task that never reached the queue. Only pending tasks
// can be discarded.
func (s *Store) Discard(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.items[id]; ok && t.Status == StatusPending {
		delete(s.items, id)
	}
}

// Get returns a copy of the task.
func (s *Store) Get(_ context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

// List returns all tasks, newest first.
func (s *Store) List(_ context.Context) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.items))
	for _, id := range s.order {
		if t, ok := s.items[id]; ok {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Sweep drops terminal tasks older than the retention window and reports how
// many were removed. No-op when retention is zero.
func (s *Store) Sweep(_ context.Context) int {
	if s.retention <= 0 {
		return 0
	}
	cutoff := s.now().UTC().Add(-s.retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		t, ok := s.items[id]
		if !ok {
			continue
		}
		if t.Status.Terminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(s.items, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// RunSweeper sweeps on the interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
