package extract

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
)

// fakePage serves canned JSON for the template and fallback scripts and the
// page URL probe.
type fakePage struct {
	pageURL       string
	templateJSON  string
	fallbackJSON  string
	templateErr   error
	fallbackCalls int
}

func (f *fakePage) EvaluateString(ctx context.Context, expression string) (string, error) {
	if strings.Contains(expression, "window.location.href") {
		return f.pageURL, nil
	}
	if strings.Contains(expression, "const pick") {
		if f.templateErr != nil {
			return "", f.templateErr
		}
		return f.templateJSON, nil
	}
	f.fallbackCalls++
	return f.fallbackJSON, nil
}

func (f *fakePage) CurrentURL(ctx context.Context) (string, error) { return f.pageURL, nil }

func (f *fakePage) Navigate(context.Context, string) error { panic("unused") }

func (f *fakePage) WaitVisible(context.Context, string, time.Duration) error { panic("unused") }

func (f *fakePage) Click(context.Context, string) error { panic("unused") }

func (f *fakePage) Type(context.Context, string, string) error { panic("unused") }

func (f *fakePage) PressEnter(context.Context, string) error { panic("unused") }

func (f *fakePage) Scroll(context.Context, int) error { panic("unused") }

func (f *fakePage) Evaluate(context.Context, string) (any, error) { panic("unused") }

func (f *fakePage) CaptureScreenshot(context.Context) (string, error) { panic("unused") }

func (f *fakePage) Close() error { return nil }

func records(t *testing.T, items ...map[string]string) string {
	t.Helper()
	raw, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func selectorsFor(t *testing.T, category catalog.Category) map[string][]string {
	t.Helper()
	site := catalog.Builtin().Lookup(category)
	out := map[string][]string{}
	for _, role := range []string{
		catalog.RoleResultItem, catalog.RoleResultTitle, catalog.RoleResultLink,
		catalog.RoleResultPrice, catalog.RoleResultRating, catalog.RoleResultDesc,
	} {
		if cands := site.Selectors.Candidates(role); len(cands) > 0 {
			out[role] = cands
		}
	}
	return out
}

func TestExtractTemplatePassSkipsFallbackWhenYieldIsEnough(t *testing.T) {
	page := &fakePage{
		pageURL: "https://duckduckgo.com/?q=news",
		templateJSON: records(t,
			map[string]string{"title": "First", "href": "https://a.example/1"},
			map[string]string{"title": "Second", "href": "https://a.example/2"},
			map[string]string{"title": "Third", "href": "https://a.example/3"},
		),
		fallbackJSON: records(t, map[string]string{"title": "Filler result title here", "href": "https://b.example/x"}),
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if len(got) != 3 {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	if page.fallbackCalls != 0 {
		t.Fatal("fallback must not run when the template pass yields enough")
	}
	for _, r := range got {
		if r.Source != SourceTemplate {
			t.Fatalf("result source = %q", r.Source)
		}
	}
}

func TestExtractFallsBackBelowThreshold(t *testing.T) {
	page := &fakePage{
		pageURL:      "https://duckduckgo.com/?q=news",
		templateJSON: records(t, map[string]string{"title": "Lonely", "href": "https://a.example/1"}),
		fallbackJSON: records(t,
			map[string]string{"title": "A long enough anchor label", "href": "/relative/path"},
			map[string]string{"title": "Another long anchor label", "href": "https://c.example/2"},
		),
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if page.fallbackCalls != 1 {
		t.Fatal("expected fallback pass to run")
	}
	if len(got) != 3 {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	if got[0].Source != SourceTemplate {
		t.Fatal("template results must rank first")
	}
	if got[1].URL != "https://duckduckgo.com/relative/path" {
		t.Fatalf("relative URL not resolved: %q", got[1].URL)
	}
}

func TestExtractDropsRecordsWithoutAbsoluteURL(t *testing.T) {
	page := &fakePage{
		pageURL: "https://www.amazon.com/s?k=shoes",
		templateJSON: records(t,
			map[string]string{"title": "No link at all", "href": ""},
			map[string]string{"title": "Javascript link", "href": "javascript:void(0)"},
			map[string]string{"title": "Good", "href": "/dp/B000?ref=sr", "price": "$39.99"},
			map[string]string{"title": "Also good", "href": "https://www.amazon.com/dp/B001"},
			map[string]string{"title": "Mail", "href": "mailto:x@example.com"},
		),
		fallbackJSON: "[]",
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryShopping))
	if len(got) != 2 {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	if got[0].URL != "https://www.amazon.com/dp/B000?ref=sr" {
		t.Fatalf("resolved URL = %q", got[0].URL)
	}
	if got[0].Price != "$39.99" {
		t.Fatalf("price = %q", got[0].Price)
	}
}

func TestExtractDedupesByURLFirstWins(t *testing.T) {
	page := &fakePage{
		pageURL: "https://duckduckgo.com/",
		templateJSON: records(t,
			map[string]string{"title": "Template copy", "href": "https://a.example/1"},
		),
		fallbackJSON: records(t,
			map[string]string{"title": "Fallback copy of the same", "href": "https://a.example/1"},
			map[string]string{"title": "Fresh fallback anchor text", "href": "https://a.example/2"},
		),
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if len(got) != 2 {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	if got[0].Title != "Template copy" {
		t.Fatalf("first-wins violated: %+v", got[0])
	}
}

func TestExtractNeverFails(t *testing.T) {
	page := &fakePage{
		pageURL:      "https://duckduckgo.com/",
		templateErr:  context.DeadlineExceeded,
		fallbackJSON: "not json at all",
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if got == nil {
		t.Fatal("extractor must return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("got %d results from broken page", len(got))
	}
}

func TestExtractCapsAtMaxResults(t *testing.T) {
	items := make([]map[string]string, 0, 15)
	for i := 0; i < 15; i++ {
		items = append(items, map[string]string{
			"title": "Result",
			"href":  "https://a.example/" + string(rune('a'+i)),
		})
	}
	page := &fakePage{pageURL: "https://duckduckgo.com/", templateJSON: records(t, items...), fallbackJSON: "[]"}
	e := New()
	got := e.Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if len(got) != e.MaxResults {
		t.Fatalf("got %d results, want %d", len(got), e.MaxResults)
	}
}

func TestExtractClipsOversizeFields(t *testing.T) {
	page := &fakePage{
		pageURL: "https://duckduckgo.com/?q=news",
		templateJSON: records(t,
			map[string]string{
				"title":       strings.Repeat("t", 250),
				"href":        "https://a.example/1",
				"price":       strings.Repeat("9", 60),
				"description": strings.Repeat("d", 400),
			},
			map[string]string{"title": strings.Repeat("é", 260), "href": "https://a.example/2"},
			map[string]string{"title": "Short", "href": "https://a.example/3"},
		),
		fallbackJSON: records(t),
	}
	got := New().Extract(context.Background(), page, selectorsFor(t, catalog.CategoryGeneric))
	if len(got) != 3 {
		t.Fatalf("got %d results: %+v", len(got), got)
	}
	if n := len([]rune(got[0].Title)); n != 200 {
		t.Fatalf("title clipped to %d runes", n)
	}
	if n := len(got[0].Price); n != 40 {
		t.Fatalf("price clipped to %d", n)
	}
	if n := len(got[0].Description); n != 300 {
		t.Fatalf("description clipped to %d", n)
	}
	if n := len([]rune(got[1].Title)); n != 200 {
		t.Fatalf("multibyte title clipped to %d runes", n)
	}
	if got[2].Title != "Short" {
		t.Fatalf("short title changed: %q", got[2].Title)
	}
}
