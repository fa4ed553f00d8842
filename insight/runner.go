package insight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle stage of a task.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Task is one generation request. A failed task's Text is FailureMessage.
type Task struct {
	ID         string
	Period     string
	State      State
	Text       string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

// DefaultMaxTasks bounds how many tasks a Runner remembers.
const DefaultMaxTasks = 256

// Runner executes generation tasks in the background. Each task gets its
// own deadline; there are no retries.
type Runner struct {
	gen      Generator
	timeout  time.Duration
	logger   *zap.Logger
	maxTasks int

	// OnFinish, when set, is called once per task with its final state.
	OnFinish func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	tasks map[string]*Task
	order []string
}

// NewRunner creates a runner. timeout bounds each task.
func NewRunner(gen Generator, timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		gen:      gen,
		timeout:  timeout,
		logger:   logger,
		maxTasks: DefaultMaxTasks,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[string]*Task),
	}
}

// Start registers a pending task and runs it in the background.
func (r *Runner) Start(in Input) Task {
	task := &Task{
		ID:        uuid.NewString(),
		Period:    in.Period.String(),
		State:     StatePending,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	r.pruneLocked()
	snapshot := *task
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(task.ID, in)

	r.logger.Info("insight task started", zap.String("task_id", task.ID), zap.String("period", task.Period))
	return snapshot
}

// Get returns a copy of the task.
func (r *Runner) Get(id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return *task, nil
}

// Close cancels running tasks and waits for them to finish.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(id string, in Input) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := r.gen.Generate(ctx, in)

	state := StateSucceeded
	if err != nil {
		state = StateFailed
		text = FailureMessage
		r.logger.Error("insight generation failed",
			zap.String("task_id", id),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	} else {
		r.logger.Info("insight generation finished",
			zap.String("task_id", id),
			zap.Duration("elapsed", time.Since(start)))
	}

	now := time.Now().UTC()
	r.mu.Lock()
	if task, ok := r.tasks[id]; ok {
		task.State = state
		task.Text = text
		task.FinishedAt = &now
	}
	r.mu.Unlock()

	if r.OnFinish != nil {
		r.OnFinish(state)
	}
}

// pruneLocked forgets the oldest finished tasks beyond maxTasks.
func (r *Runner) pruneLocked() {
	excess := len(r.order) - r.maxTasks
	if excess <= 0 {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if excess > 0 && r.tasks[id].State != StatePending {
			delete(r.tasks, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}
