package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

// fakeSession scripts the page surface the executor touches.
type fakeSession struct {
	visible      map[string]bool
	navErr       error
	typeErr      error
	pageURL      string
	title        string
	body         string
	templateJSON string
	fallbackJSON string
	closed       bool
	navigated    []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		visible: map[string]bool{},
		pageURL: "https://duckduckgo.com/?q=x",
		title:   "results",
		body:    "ten blue links",
		templateJSON: `[{"title":"One","href":"https://a.example/1"},` +
			`{"title":"Two","href":"https://a.example/2"},` +
			`{"title":"Three","href":"https://a.example/3"}]`,
		fallbackJSON: `[]`,
	}
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if f.visible[selector] {
		return nil
	}
	return errors.New("timeout")
}

func (f *fakeSession) Click(context.Context, string) error { return nil }

func (f *fakeSession) Type(_ context.Context, _, _ string) error { return f.typeErr }

func (f *fakeSession) PressEnter(context.Context, string) error { return nil }

func (f *fakeSession) Scroll(context.Context, int) error { return nil }

func (f *fakeSession) Evaluate(ctx context.Context, expr string) (any, error) {
	s, err := f.EvaluateString(ctx, expr)
	return s, err
}

func (f *fakeSession) EvaluateString(_ context.Context, expr string) (string, error) {
	switch {
	case strings.Contains(expr, "const pick"):
		return f.templateJSON, nil
	case strings.Contains(expr, "seen.add"):
		return f.fallbackJSON, nil
	case strings.Contains(expr, "window.location.href"):
		return f.pageURL, nil
	case strings.Contains(expr, "document.title"):
		return f.title, nil
	case strings.Contains(expr, "document.body"):
		return f.body, nil
	}
	return "", nil
}

func (f *fakeSession) CurrentURL(context.Context) (string, error) { return f.pageURL, nil }

func (f *fakeSession) CaptureScreenshot(context.Context) (string, error) {
	return "aGVsbG8=", nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeDriver struct {
	session *fakeSession
	err     error
}

func (d *fakeDriver) NewSession(context.Context, browser.SessionOptions) (browser.Session, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newEngine(t *testing.T, driver browser.Driver, cfg Config) (*Engine, context.CancelFunc) {
	t.Helper()
	if cfg.StealthMode == "" {
		cfg.StealthMode = "off"
	}
	if cfg.StepBudget == 0 {
		cfg.StepBudget = 300 * time.Millisecond
	}
	e := New(task.NewStore(0), driver, catalog.Builtin(), nil, nil, cfg, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	t.Cleanup(cancel)
	return e, cancel
}

func waitTerminal(t *testing.T, e *Engine, id string) task.Task {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, err := e.Task(context.Background(), id)
		if err != nil {
			t.Fatalf("load task: %v", err)
		}
		if got.Status.Terminal() {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal state")
	return task.Task{}
}

func markGenericVisible(s *fakeSession) {
	site := catalog.Builtin().Lookup(catalog.CategoryGeneric)
	for _, role := range []string{catalog.RoleSearchInput, catalog.RoleSearchSubmit, catalog.RoleResultItem} {
		for _, selector := range site.Selectors.Candidates(role) {
			s.visible[selector] = true
		}
	}
}

func TestEngineHappyPath(t *testing.T) {
	session := newFakeSession()
	markGenericVisible(session)
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, err := e.Submit(context.Background(), "what is the capital of france")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.Status != task.StatusPending {
		t.Fatalf("submitted task status = %q", created.Status)
	}

	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusSucceeded {
		t.Fatalf("status = %q, error = %q", done.Status, done.Error)
	}
	if len(done.Results) != 3 {
		t.Fatalf("results = %d", len(done.Results))
	}
	if len(done.Steps) != len(done.Plan.Steps) {
		t.Fatalf("trace has %d entries for %d steps", len(done.Steps), len(done.Plan.Steps))
	}
	if !session.closed {
		t.Fatal("session not closed")
	}
	if len(session.navigated) != 1 || session.navigated[0] != done.Plan.BaseURL {
		t.Fatalf("navigated %v", session.navigated)
	}
}

func TestEngineNavigateFailureAborts(t *testing.T) {
	session := newFakeSession()
	session.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, err := e.Submit(context.Background(), "anything")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusFailed {
		t.Fatalf("status = %q", done.Status)
	}
	if !strings.Contains(done.Error, "ERR_NAME_NOT_RESOLVED") {
		t.Fatalf("error = %q", done.Error)
	}
	for _, outcome := range done.Steps[1:] {
		if outcome.Status != task.StepSkipped {
			t.Fatalf("step %d after failed navigate has status %q", outcome.Index, outcome.Status)
		}
	}
}

func TestEngineRequiredStepFailureAborts(t *testing.T) {
	session := newFakeSession()
	markGenericVisible(session)
	session.typeErr = errors.New("element detached")
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, _ := e.Submit(context.Background(), "anything")
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusFailed {
		t.Fatalf("status = %q", done.Status)
	}
}

func TestEngineOptionalFailureDegradesToPartial(t *testing.T) {
	session := newFakeSession()
	markGenericVisible(session)
	// Hide the result items so the waitFor step misses, while extraction
	// still yields records.
	site := catalog.Builtin().Lookup(catalog.CategoryGeneric)
	for _, selector := range site.Selectors.Candidates(catalog.RoleResultItem) {
		session.visible[selector] = false
	}
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, _ := e.Submit(context.Background(), "anything")
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusPartiallySucceeded {
		t.Fatalf("status = %q, error = %q", done.Status, done.Error)
	}
	if len(done.Results) == 0 {
		t.Fatal("expected results from extraction")
	}
}

func TestEngineBlockerFailsTask(t *testing.T) {
	session := newFakeSession()
	session.body = "please complete the following challenge to continue"
	session.templateJSON = "[]"
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, _ := e.Submit(context.Background(), "anything")
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusFailed {
		t.Fatalf("status = %q", done.Status)
	}
	if !strings.Contains(done.Error, "human_verification_required") {
		t.Fatalf("error = %q", done.Error)
	}
}

func TestEngineBlockerOnOptionalStepContinues(t *testing.T) {
	session := newFakeSession()
	markGenericVisible(session)
	session.body = "please complete the following challenge to continue"
	// Hide the result items so only the optional waitFor step misses.
	site := catalog.Builtin().Lookup(catalog.CategoryGeneric)
	for _, selector := range site.Selectors.Candidates(catalog.RoleResultItem) {
		session.visible[selector] = false
	}
	e, _ := newEngine(t, &fakeDriver{session: session}, Config{Workers: 1, QueueSize: 4})

	created, _ := e.Submit(context.Background(), "anything")
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusPartiallySucceeded {
		t.Fatalf("status = %q, error = %q", done.Status, done.Error)
	}
	if len(done.Results) == 0 {
		t.Fatal("expected extraction to run after the blocked optional step")
	}
	if !strings.Contains(done.Error, "human_verification_required") {
		t.Fatalf("blocker not surfaced: error = %q", done.Error)
	}
	last := done.Steps[len(done.Steps)-1]
	if last.Kind != catalog.ActionExtract || last.Status != task.StepSucceeded {
		t.Fatalf("trailing extract step = %+v", last)
	}
}

func TestEngineQueueFullRejectsSubmission(t *testing.T) {
	// No Start call, so nothing drains the queue.
	e := New(task.NewStore(0), &fakeDriver{session: newFakeSession()}, catalog.Builtin(), nil, nil,
		Config{Workers: 1, QueueSize: 1, StealthMode: "off"}, quietLogger())

	if _, err := e.Submit(context.Background(), "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	rejected, err := e.Submit(context.Background(), "second")
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if rejected.ID != "" {
		t.Fatal("rejected submission leaked a task")
	}
	if got := e.Tasks(context.Background()); len(got) != 1 {
		t.Fatalf("store holds %d tasks, want 1", len(got))
	}

	m := e.Snapshot()
	if m.Submitted != 1 || m.Rejected != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestEngineSessionFailureFailsTask(t *testing.T) {
	e, _ := newEngine(t, &fakeDriver{err: errors.New("connect refused")}, Config{Workers: 1, QueueSize: 4})
	created, _ := e.Submit(context.Background(), "anything")
	done := waitTerminal(t, e, created.ID)
	if done.Status != task.StatusFailed {
		t.Fatalf("status = %q", done.Status)
	}
	if !strings.Contains(done.Error, "browser session unavailable") {
		t.Fatalf("error = %q", done.Error)
	}
}

func TestEngineEmptyGoalRejected(t *testing.T) {
	e, _ := newEngine(t, &fakeDriver{session: newFakeSession()}, Config{Workers: 1, QueueSize: 4})
	if _, err := e.Submit(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank goal")
	}
}
