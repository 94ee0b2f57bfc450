package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinValidates(t *testing.T) {
	c := Builtin()
	if err := c.Validate(); err != nil {
		t.Fatalf("builtin catalog invalid: %v", err)
	}
	if got := len(c.Sites()); got != len(Categories()) {
		t.Fatalf("expected %d sites, got %d", len(Categories()), got)
	}
}

func TestLookupFallsThroughToGeneric(t *testing.T) {
	c := Builtin()
	site := c.Lookup(Category("podcasts"))
	if site.Category != CategoryGeneric {
		t.Fatalf("expected generic fallback, got %q", site.Category)
	}
	if site.BaseURL == "" {
		t.Fatal("generic site has no base url")
	}
}

func TestBuiltinSearchSitesCarryQuerySlot(t *testing.T) {
	c := Builtin()
	for _, site := range c.Sites() {
		hasType := false
		for _, step := range site.Steps {
			if step.Kind == ActionType {
				hasType = true
				if step.Text != "{query}" {
					t.Errorf("site %s: type step text = %q, want {query}", site.Name, step.Text)
				}
				if !step.Required {
					t.Errorf("site %s: type step should be required", site.Name)
				}
			}
		}
		if site.Category == CategoryBooks {
			if hasType {
				t.Errorf("books site should browse, not search")
			}
			continue
		}
		if !hasType {
			t.Errorf("site %s: missing type step", site.Name)
		}
	}
}

func TestValidateRejectsRoleWithoutCandidates(t *testing.T) {
	c := Builtin()
	site := c.Lookup(CategoryGeneric)
	site.Selectors = SelectorSet{}
	err := validateSite(site)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected *ConfigurationError, got %T", err)
	}
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	site := SiteDescriptor{
		Category: CategoryGeneric,
		Name:     "broken",
		BaseURL:  "/search",
		Steps:    []StepTemplate{{Kind: ActionNavigate}},
	}
	if err := validateSite(site); err == nil {
		t.Fatal("expected configuration error for relative base url")
	}
}

func TestLoadEmptyPathReturnsBuiltin(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Lookup(CategoryShopping).Name != "amazon" {
		t.Fatal("builtin shopping site missing")
	}
}

func TestLoadOverlayPatchesSite(t *testing.T) {
	overlay := `
sites:
  - category: shopping
    base_url: https://shop.example.com
    selectors:
      search_input:
        - "input#q"
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	site := c.Lookup(CategoryShopping)
	if site.BaseURL != "https://shop.example.com" {
		t.Fatalf("base url not patched: %q", site.BaseURL)
	}
	if site.Name != "amazon" {
		t.Fatalf("untouched fields should survive the patch, got name %q", site.Name)
	}
	if got := site.Selectors.Candidates(RoleSearchInput); len(got) != 1 || got[0] != "input#q" {
		t.Fatalf("selector role not replaced: %v", got)
	}
	if len(site.Selectors.Candidates(RoleResultItem)) == 0 {
		t.Fatal("unpatched selector roles should survive the patch")
	}
}

func TestLoadOverlayMissingCategoryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("sites:\n  - name: stray\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for overlay site without category")
	}
}
