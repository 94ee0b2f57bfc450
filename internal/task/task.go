// Package task holds the task model and its in-memory store.
package task

import (
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/extract"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
)

// Status is the task lifecycle state. Transitions only move forward:
// pending to running, running to exactly one terminal state.
type Status string

const (
	StatusPending            Status = "pending"
	StatusRunning            Status = "running"
	StatusSucceeded          Status = "succeeded"
	StatusPartiallySucceeded Status = "partially_succeeded"
	StatusFailed             Status = "failed"
)

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusPartiallySucceeded, StatusFailed:
		return true
	}
	return false
}

// StepStatus classifies one executed step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepOutcome is one entry in a task's execution trace.
type StepOutcome struct {
	Index      int                `json:"index"`
	Kind       catalog.ActionKind `json:"kind"`
	Role       string             `json:"role,omitempty"`
	Selector   string             `json:"selector,omitempty"`
	Required   bool               `json:"required,omitempty"`
	Status     StepStatus         `json:"status"`
	Detail     string             `json:"detail,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

// Task is one goal moving through the pipeline. Plan and Category are set at
// submission; the trace, results, and terminal state accrue during
// execution.
type Task struct {
	ID            string           `json:"id"`
	Goal          string           `json:"goal"`
	Category      catalog.Category `json:"category"`
	Status        Status           `json:"status"`
	Plan          plan.Plan        `json:"plan"`
	Steps         []StepOutcome    `json:"steps,omitempty"`
	Results       []extract.Result `json:"results,omitempty"`
	Error         string           `json:"error,omitempty"`
	ScreenshotRef string           `json:"screenshot_ref,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}
