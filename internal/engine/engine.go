// Package engine owns task execution: the worker pool, the per-task state
// machine, and status derivation.
package engine

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/artifact"
	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/extract"
	"github.com/bhavanagoud111/The-Robot-driver/internal/intent"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
	"github.com/bhavanagoud111/The-Robot-driver/internal/stealth"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

// ErrQueueFull is returned when the waiting buffer has no room for another
// task.
var ErrQueueFull = errors.New("task queue is full")

type Config struct {
	QueueSize   int
	Workers     int
	TaskTimeout time.Duration
	StepBudget  time.Duration
	StealthMode string
}

// Metrics is a point-in-time counter snapshot.
type Metrics struct {
	Submitted          int64 `json:"submitted"`
	Rejected           int64 `json:"rejected"`
	Succeeded          int64 `json:"succeeded"`
	PartiallySucceeded int64 `json:"partially_succeeded"`
	Failed             int64 `json:"failed"`
	QueueDepth         int   `json:"queue_depth"`
}

type counters struct {
	submitted          atomic.Int64
	rejected           atomic.Int64
	succeeded          atomic.Int64
	partiallySucceeded atomic.Int64
	failed             atomic.Int64
}

// Engine turns goals into terminal tasks. Submission is synchronous up to
// plan compilation; execution happens on the worker pool in FIFO order.
type Engine struct {
	tasks     *task.Store
	driver    browser.Driver
	catalog   *catalog.Catalog
	enricher  plan.Enricher
	artifacts artifact.Store
	extractor *extract.Extractor
	cfg       Config
	logger    *log.Logger
	queue     chan string
	stats     counters
}

func New(tasks *task.Store, driver browser.Driver, cat *catalog.Catalog, enricher plan.Enricher, artifacts artifact.Store, cfg Config, logger *log.Logger) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 90 * time.Second
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = 8 * time.Second
	}
	if enricher == nil {
		enricher = plan.NoopEnricher{}
	}
	if artifacts == nil {
		artifacts = artifact.Disabled{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		tasks:     tasks,
		driver:    driver,
		catalog:   cat,
		enricher:  enricher,
		artifacts: artifacts,
		extractor: extract.New(),
		cfg:       cfg,
		logger:    logger,
		queue:     make(chan string, cfg.QueueSize),
	}
}

// Start launches the worker pool. Workers drain the queue until ctx is done.
func (e *Engine) Start(ctx context.Context) {
	for workerID := 1; workerID <= e.cfg.Workers; workerID++ {
		go e.worker(ctx, workerID)
	}
}

// Submit classifies and compiles the goal, registers the task, and queues it
// for execution. A full queue rejects the submission with ErrQueueFull.
func (e *Engine) Submit(ctx context.Context, goal string) (task.Task, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return task.Task{}, errors.New("goal is required")
	}

	classified := intent.Classify(goal)
	compiled, err := plan.Compile(goal, classified, e.catalog)
	if err != nil {
		return task.Task{}, err
	}

	created, err := e.tasks.Create(ctx, goal, classified.Category, compiled)
	if err != nil {
		return task.Task{}, err
	}

	select {
	case e.queue <- created.ID:
	default:
		e.stats.rejected.Add(1)
		e.tasks.Discard(ctx, created.ID)
		return task.Task{}, ErrQueueFull
	}
	e.stats.submitted.Add(1)
	e.logger.Printf("task=%s category=%s site=%s queued goal=%q", created.ID, created.Category, compiled.Site, goal)
	return created, nil
}

// Task returns the current task state.
func (e *Engine) Task(ctx context.Context, id string) (task.Task, error) {
	return e.tasks.Get(ctx, id)
}

// Tasks lists all known tasks, newest first.
func (e *Engine) Tasks(ctx context.Context) []task.Task {
	return e.tasks.List(ctx)
}

// Snapshot reads the counters.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		Submitted:          e.stats.submitted.Load(),
		Rejected:           e.stats.rejected.Load(),
		Succeeded:          e.stats.succeeded.Load(),
		PartiallySucceeded: e.stats.partiallySucceeded.Load(),
		Failed:             e.stats.failed.Load(),
		QueueDepth:         len(e.queue),
	}
}

func (e *Engine) worker(ctx context.Context, workerID int) {
	e.logger.Printf("engine worker %d started", workerID)
	for {
		select {
		case <-ctx.Done():
			e.logger.Printf("engine worker %d stopping", workerID)
			return
		case taskID := <-e.queue:
			e.process(ctx, workerID, taskID)
		}
	}
}

func (e *Engine) process(ctx context.Context, workerID int, taskID string) {
	started, err := e.tasks.Start(ctx, taskID)
	if err != nil {
		e.logger.Printf("worker %d cannot start task %s: %v", workerID, taskID, err)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.TaskTimeout)
	defer cancel()

	seed := taskSeed(taskID)
	compiled := plan.Enrich(runCtx, e.enricher, started.Plan)

	session, err := e.driver.NewSession(runCtx, stealth.SessionOptions(seed))
	if err != nil {
		e.finish(ctx, taskID, task.CompleteInput{
			Status: task.StatusFailed,
			Error:  "browser session unavailable: " + err.Error(),
		})
		return
	}
	defer session.Close()

	exec := &executor{
		session:   session,
		pacer:     stealth.NewPacer(e.cfg.StealthMode, seed),
		extractor: e.extractor,
		budget:    e.cfg.StepBudget,
	}
	result := exec.run(runCtx, compiled)

	for _, outcome := range result.Outcomes {
		if err := e.tasks.AppendOutcome(ctx, taskID, outcome); err != nil {
			e.logger.Printf("task=%s trace append failed: %v", taskID, err)
			break
		}
	}

	input := task.CompleteInput{
		Status:  DeriveStatus(result.Outcomes, len(result.Results)),
		Results: result.Results,
	}
	if result.Blocker.Kind != "" {
		input.Error = result.Blocker.Kind + ": " + result.Blocker.Detail
	} else if runCtx.Err() != nil {
		input.Error = "task deadline exceeded"
	} else if input.Status == task.StatusFailed {
		input.Error = firstFailureDetail(result.Outcomes)
	}
	if result.Screenshot != "" {
		if ref, saveErr := e.artifacts.SaveScreenshot(ctx, taskID, result.Screenshot); saveErr == nil {
			input.ScreenshotRef = ref
		} else {
			e.logger.Printf("task=%s screenshot save failed: %v", taskID, saveErr)
		}
	}
	e.finish(ctx, taskID, input)
}

func (e *Engine) finish(ctx context.Context, taskID string, input task.CompleteInput) {
	done, err := e.tasks.Complete(ctx, taskID, input)
	if err != nil {
		e.logger.Printf("task=%s completion failed: %v", taskID, err)
		return
	}
	switch done.Status {
	case task.StatusSucceeded:
		e.stats.succeeded.Add(1)
	case task.StatusPartiallySucceeded:
		e.stats.partiallySucceeded.Add(1)
	case task.StatusFailed:
		e.stats.failed.Add(1)
	}
	e.logger.Printf("task=%s status=%s results=%d error=%q", done.ID, done.Status, len(done.Results), done.Error)
}

func firstFailureDetail(outcomes []task.StepOutcome) string {
	for _, outcome := range outcomes {
		if outcome.Status == task.StepFailed {
			return outcome.Detail
		}
	}
	return "task failed"
}

// taskSeed derives a stable per-task seed so pacing and fingerprint draws
// replay from the task id.
func taskSeed(taskID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(taskID))
	return int64(h.Sum64())
}
