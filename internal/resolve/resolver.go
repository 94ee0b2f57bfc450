// Package resolve picks a live selector for a logical role from its ranked
// candidate list.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
)

const minProbe = 250 * time.Millisecond

// NotFoundError reports that no candidate matched within the budget. It
// carries the exhausted list so step traces can show what was tried.
type NotFoundError struct {
	Role       string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolve: no candidate for role %q matched (tried %s)",
		e.Role, strings.Join(e.Candidates, ", "))
}

// First probes candidates in rank order and returns the first selector with
// a visible match. The overall budget is split evenly across the candidates
// still untried, so an early slow candidate cannot starve the rest: after
// each miss the remaining budget is re-divided among the remaining
// candidates.
func First(ctx context.Context, s browser.Session, role string, candidates []string, budget time.Duration) (string, error) {
	cleaned := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return "", &NotFoundError{Role: role}
	}
	if budget <= 0 {
		budget = 8 * time.Second
	}

	deadline := time.Now().Add(budget)
	for i, candidate := range cleaned {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", &NotFoundError{Role: role, Candidates: cleaned}
		}
		slice := remaining / time.Duration(len(cleaned)-i)
		if slice < minProbe {
			slice = minProbe
			if slice > remaining {
				slice = remaining
			}
		}
		if err := s.WaitVisible(ctx, candidate, slice); err == nil {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Role: role, Candidates: cleaned}
}
