package nutrition

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// RunFunc is the work a task performs. Pipeline.Run satisfies it.
type RunFunc func(ctx context.Context, userID uuid.UUID, req AnalyzeRequest) (*AnalysisOutcome, error)

type TaskSnapshot struct {
	ID         uuid.UUID        `json:"task_id"`
	Status     TaskStatus       `json:"status"`
	Outcome    *AnalysisOutcome `json:"outcome,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`

	err error
}

// Err is the failure the task ended with, if any.
func (s TaskSnapshot) Err() error { return s.err }

type analysisTask struct {
	id         uuid.UUID
	userID     uuid.UUID
	cancel     context.CancelFunc
	done       chan struct{}
	status     TaskStatus
	outcome    *AnalysisOutcome
	err        error
	createdAt  time.Time
	finishedAt time.Time
}

func (t *analysisTask) snapshot() TaskSnapshot {
	s := TaskSnapshot{
		ID:        t.id,
		Status:    t.status,
		Outcome:   t.outcome,
		CreatedAt: t.createdAt,
		err:       t.err,
	}
	if t.err != nil {
		s.Error = publicMessage(t.err)
	}
	if !t.finishedAt.IsZero() {
		f := t.finishedAt
		s.FinishedAt = &f
	}
	return s
}

// TaskRegistry holds in-flight and recently finished analyses, keyed by task
// id and visible only to the user who started them.
type TaskRegistry struct {
	run RunFunc
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	tasks map[uuid.UUID]*analysisTask

	root     context.Context
	stopRoot context.CancelFunc
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewTaskRegistry(run RunFunc, ttl time.Duration) *TaskRegistry {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	root, cancel := context.WithCancel(context.Background())
	return &TaskRegistry{
		run:      run,
		ttl:      ttl,
		now:      time.Now,
		tasks:    make(map[uuid.UUID]*analysisTask),
		root:     root,
		stopRoot: cancel,
		stop:     make(chan struct{}),
	}
}

// Start launches req in the background and returns its task id.
func (r *TaskRegistry) Start(userID uuid.UUID, req AnalyzeRequest) uuid.UUID {
	ctx, cancel := context.WithCancel(r.root)
	t := &analysisTask{
		id:        uuid.New(),
		userID:    userID,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    TaskPending,
		createdAt: r.now(),
	}

	r.mu.Lock()
	r.tasks[t.id] = t
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(t.done)
		defer cancel()

		outcome, err := r.run(ctx, userID, req)

		r.mu.Lock()
		defer r.mu.Unlock()
		if outcome != nil {
			t.outcome = outcome
		}
		if t.status != TaskPending {
			return
		}
		t.finishedAt = r.now()
		switch {
		case err == nil:
			t.status = TaskSucceeded
		case errors.Is(err, context.Canceled):
			t.status = TaskCancelled
			t.err = err
		default:
			t.status = TaskFailed
			t.err = err
		}
	}()

	return t.id
}

func (r *TaskRegistry) lookup(userID, id uuid.UUID) (*analysisTask, error) {
	t, ok := r.tasks[id]
	if !ok || t.userID != userID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (r *TaskRegistry) Get(userID, id uuid.UUID) (TaskSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.lookup(userID, id)
	if err != nil {
		return TaskSnapshot{}, err
	}
	return t.snapshot(), nil
}

// Cancel aborts a pending task. The provider call is interrupted and the
// entry is never written. Finished tasks are returned unchanged.
func (r *TaskRegistry) Cancel(userID, id uuid.UUID) (TaskSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.lookup(userID, id)
	if err != nil {
		return TaskSnapshot{}, err
	}
	if t.status == TaskPending {
		t.cancel()
		t.status = TaskCancelled
		t.err = context.Canceled
		t.finishedAt = r.now()
	}
	return t.snapshot(), nil
}

// Wait blocks until the task's goroutine returns or ctx ends.
func (r *TaskRegistry) Wait(ctx context.Context, userID, id uuid.UUID) (TaskSnapshot, error) {
	r.mu.Lock()
	t, err := r.lookup(userID, id)
	r.mu.Unlock()
	if err != nil {
		return TaskSnapshot{}, err
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return TaskSnapshot{}, ctx.Err()
	}
	return r.Get(userID, id)
}

// Sweep drops tasks that finished more than ttl ago.
func (r *TaskRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.tasks {
		if t.status != TaskPending && t.finishedAt.Before(cutoff) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired tasks every interval until Stop.
func (r *TaskRegistry) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop cancels every in-flight task and waits for background work to end.
func (r *TaskRegistry) Stop() {
	r.stopOnce.Do(func() {
		r.stopRoot()
		close(r.stop)
	})
	r.wg.Wait()
}
