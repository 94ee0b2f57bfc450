package plan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/intent"
)

func compileFor(t *testing.T, goal string) Plan {
	t.Helper()
	it := intent.Classify(goal)
	p, err := Compile(goal, it, catalog.Builtin())
	if err != nil {
		t.Fatalf("compile %q: %v", goal, err)
	}
	return p
}

func TestCompileBindsQueryIntoTypeStep(t *testing.T) {
	p := compileFor(t, "find cheapest halloween dress")
	if p.Category != catalog.CategoryShopping {
		t.Fatalf("category = %q", p.Category)
	}
	var typed *Step
	for i := range p.Steps {
		if p.Steps[i].Kind == catalog.ActionType {
			typed = &p.Steps[i]
		}
	}
	if typed == nil {
		t.Fatal("no type step in plan")
	}
	if typed.Value != "cheapest halloween dress" {
		t.Fatalf("type value = %q", typed.Value)
	}
	if len(typed.Selectors) == 0 {
		t.Fatal("type step has no selector candidates")
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	first := compileFor(t, "latest news about space")
	second := compileFor(t, "latest news about space")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same goal compiled to different plans")
	}
}

func TestCompileNavigateCarriesBaseURL(t *testing.T) {
	p := compileFor(t, "anything at all")
	if p.Steps[0].Kind != catalog.ActionNavigate {
		t.Fatalf("first step = %q", p.Steps[0].Kind)
	}
	if p.Steps[0].URL != p.BaseURL {
		t.Fatalf("navigate url %q != base url %q", p.Steps[0].URL, p.BaseURL)
	}
	if !p.Steps[0].Required {
		t.Fatal("navigate step must be required")
	}
}

func TestCompileFailsOnEmptyStepTemplates(t *testing.T) {
	cat := catalog.New(catalog.SiteDescriptor{
		Category: catalog.CategoryGeneric,
		Name:     "hollow",
		BaseURL:  "https://example.com",
	})
	it := intent.Intent{Category: catalog.CategoryGeneric, Query: "x"}
	_, err := Compile("x", it, cat)
	var cerr *CompilationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompilationError, got %v", err)
	}
	if cerr.Site != "hollow" {
		t.Fatalf("error names site %q", cerr.Site)
	}
}

func TestApplyOnlyAppendsSelectors(t *testing.T) {
	p := compileFor(t, "science fiction books")
	before := append([]string(nil), p.Extraction[catalog.RoleResultTitle]...)

	out := Apply(p, map[string][]string{
		catalog.RoleResultTitle: {"h1.custom", before[0], "  "},
		"navigation_menu":       {"nav a"},
	})

	got := out.Extraction[catalog.RoleResultTitle]
	if len(got) != len(before)+1 {
		t.Fatalf("expected one appended candidate, got %v", got)
	}
	if !reflect.DeepEqual(got[:len(before)], before) {
		t.Fatal("compiled candidates must keep their rank")
	}
	if got[len(got)-1] != "h1.custom" {
		t.Fatalf("appended candidate = %q", got[len(got)-1])
	}
	if _, ok := out.Extraction["navigation_menu"]; ok {
		t.Fatal("unknown roles must be dropped")
	}
}

func TestEnrichSwallowsEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := compileFor(t, "latest news")
	e := &EndpointEnricher{EndpointURL: srv.URL}
	out := Enrich(context.Background(), e, p)
	if !reflect.DeepEqual(out, p) {
		t.Fatal("failed enrichment must leave the plan unchanged")
	}
}

func TestEndpointEnricherRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Goal == "" || req.Site == "" {
			t.Errorf("request missing goal/site: %+v", req)
		}
		json.NewEncoder(w).Encode(enrichResponse{
			Extraction: map[string][]string{
				catalog.RoleResultPrice: {"span.sale-price"},
			},
		})
	}))
	defer srv.Close()

	p := compileFor(t, "buy running shoes")
	e := &EndpointEnricher{EndpointURL: srv.URL, AuthToken: "secret"}
	out := Enrich(context.Background(), e, p)

	prices := out.Extraction[catalog.RoleResultPrice]
	if len(prices) == 0 || prices[len(prices)-1] != "span.sale-price" {
		t.Fatalf("proposal not applied: %v", prices)
	}
}
