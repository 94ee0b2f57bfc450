package engine

import (
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

// DeriveStatus folds a task's step trace and result yield into its terminal
// state. A failed navigate or required step fails the task outright; a clean
// trace succeeds even with zero records, since an empty extraction is a
// content fact rather than an execution error. Other step failures degrade
// the task to partially succeeded as long as extraction produced records.
func DeriveStatus(outcomes []task.StepOutcome, resultCount int) task.Status {
	failures := 0
	for _, outcome := range outcomes {
		if outcome.Status != task.StepFailed {
			continue
		}
		if outcome.Kind == catalog.ActionNavigate || outcome.Required {
			return task.StatusFailed
		}
		failures++
	}
	switch {
	case failures == 0:
		return task.StatusSucceeded
	case resultCount > 0:
		return task.StatusPartiallySucceeded
	default:
		return task.StatusFailed
	}
}
