package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/extract"
	"github.com/bhavanagoud111/The-Robot-driver/internal/plan"
	"github.com/bhavanagoud111/The-Robot-driver/internal/resolve"
	"github.com/bhavanagoud111/The-Robot-driver/internal/stealth"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

// executor walks one compiled plan through a live session. It produces the
// step trace, extracted results, and a final screenshot; status derivation
// happens afterwards from the trace.
type executor struct {
	session   browser.Session
	pacer     *stealth.Pacer
	extractor *extract.Extractor
	budget    time.Duration
}

type execution struct {
	Outcomes   []task.StepOutcome
	Results    []extract.Result
	Screenshot string
	Blocker    Blocker
}

// run executes steps in order. A navigate or required-step failure aborts
// the walk and marks the remaining steps skipped; other failures are traced
// and execution continues.
func (e *executor) run(ctx context.Context, p plan.Plan) execution {
	var out execution
	aborted := false

	for index, step := range p.Steps {
		if aborted || ctx.Err() != nil {
			out.Outcomes = append(out.Outcomes, task.StepOutcome{
				Index:    index,
				Kind:     step.Kind,
				Role:     step.Role,
				Required: step.Required,
				Status:   task.StepSkipped,
			})
			continue
		}
		if index > 0 {
			e.pacer.BetweenSteps(ctx)
		}

		started := time.Now()
		outcome := e.runStep(ctx, p, index, step, &out)
		outcome.DurationMS = time.Since(started).Milliseconds()
		out.Outcomes = append(out.Outcomes, outcome)

		if outcome.Status == task.StepFailed {
			if step.Kind == catalog.ActionNavigate || step.Required {
				aborted = true
			}
			// A blocker on an optional step is recorded but does not stop
			// the walk; later steps may still salvage partial results.
			if out.Blocker.Kind == "" {
				out.Blocker = probeBlocker(ctx, e.session)
			}
		}
	}

	if shot, err := e.session.CaptureScreenshot(ctx); err == nil {
		out.Screenshot = shot
	}
	return out
}

func (e *executor) runStep(ctx context.Context, p plan.Plan, index int, step plan.Step, out *execution) task.StepOutcome {
	outcome := task.StepOutcome{
		Index:    index,
		Kind:     step.Kind,
		Role:     step.Role,
		Required: step.Required,
		Status:   task.StepSucceeded,
	}

	fail := func(err error) task.StepOutcome {
		outcome.Status = task.StepFailed
		outcome.Detail = err.Error()
		return outcome
	}

	switch step.Kind {
	case catalog.ActionNavigate:
		if err := e.session.Navigate(ctx, step.URL); err != nil {
			return fail(err)
		}
		e.pacer.AfterNavigate(ctx)

	case catalog.ActionWaitFor:
		selector, err := resolve.First(ctx, e.session, step.Role, step.Selectors, e.budget)
		if err != nil {
			return fail(err)
		}
		outcome.Selector = selector

	case catalog.ActionType:
		selector, err := resolve.First(ctx, e.session, step.Role, step.Selectors, e.budget)
		if err != nil {
			return fail(err)
		}
		outcome.Selector = selector
		if err := e.session.Type(ctx, selector, step.Value); err != nil {
			return fail(err)
		}

	case catalog.ActionClick:
		selector, err := resolve.First(ctx, e.session, step.Role, step.Selectors, e.budget)
		if err != nil {
			return fail(err)
		}
		outcome.Selector = selector
		e.pacer.BeforeSubmit(ctx)
		if err := e.session.Click(ctx, selector); err != nil {
			// Submit clicks degrade to pressing enter on the typed input.
			if step.Role == catalog.RoleSearchSubmit {
				if enterErr := e.pressEnterOnInput(ctx, p); enterErr == nil {
					outcome.Detail = "click failed, submitted with enter"
					return outcome
				}
			}
			return fail(err)
		}

	case catalog.ActionScroll:
		if err := e.session.Scroll(ctx, step.Pixels); err != nil {
			return fail(err)
		}

	case catalog.ActionExtract:
		out.Results = e.extractor.Extract(ctx, e.session, p.Extraction)
		outcome.Detail = fmt.Sprintf("%d results", len(out.Results))

	default:
		return fail(fmt.Errorf("unknown step kind %q", step.Kind))
	}
	return outcome
}

// pressEnterOnInput falls back to keyboard submission using the search
// input's candidates.
func (e *executor) pressEnterOnInput(ctx context.Context, p plan.Plan) error {
	for _, step := range p.Steps {
		if step.Kind != catalog.ActionType {
			continue
		}
		selector, err := resolve.First(ctx, e.session, step.Role, step.Selectors, e.budget)
		if err != nil {
			return err
		}
		return e.session.PressEnter(ctx, selector)
	}
	return fmt.Errorf("no typed input to submit")
}
