package plan

import (
	"fmt"
	"strings"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/intent"
)

// Step is one bound action in an execution plan. Selectors carries the ranked
// candidate list for the step's target role; Value is fully substituted text.
type Step struct {
	Kind      catalog.ActionKind `json:"kind"`
	Role      string             `json:"role,omitempty"`
	Selectors []string           `json:"selectors,omitempty"`
	Value     string             `json:"value,omitempty"`
	Pixels    int                `json:"pixels,omitempty"`
	Required  bool               `json:"required,omitempty"`
	URL       string             `json:"url,omitempty"`
}

// Plan is the compiled, site-bound form of a goal. Extraction maps result
// roles to their ranked selector candidates and may be widened by an
// enricher, never narrowed.
type Plan struct {
	Goal       string              `json:"goal"`
	Category   catalog.Category    `json:"category"`
	Site       string              `json:"site"`
	BaseURL    string              `json:"base_url"`
	Query      string              `json:"query"`
	Steps      []Step              `json:"steps"`
	Extraction map[string][]string `json:"extraction,omitempty"`
}

// CompilationError is the only failure Compile produces. It occurs when a
// site descriptor carries no step templates, which a validated catalog rules
// out at startup.
type CompilationError struct {
	Site   string
	Detail string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("plan: cannot compile for site %q: %s", e.Site, e.Detail)
}

// Compile binds a classified intent to its catalog site. Compilation is
// deterministic: the same intent against the same catalog always yields the
// same plan.
func Compile(goal string, it intent.Intent, cat *catalog.Catalog) (Plan, error) {
	site := cat.Lookup(it.Category)
	if len(site.Steps) == 0 {
		return Plan{}, &CompilationError{Site: site.Name, Detail: "no step templates"}
	}

	p := Plan{
		Goal:       goal,
		Category:   it.Category,
		Site:       site.Name,
		BaseURL:    site.BaseURL,
		Query:      it.Query,
		Steps:      make([]Step, 0, len(site.Steps)),
		Extraction: map[string][]string{},
	}
	for _, tmpl := range site.Steps {
		step := Step{
			Kind:     tmpl.Kind,
			Role:     tmpl.Role,
			Pixels:   tmpl.Pixels,
			Required: tmpl.Required,
		}
		switch tmpl.Kind {
		case catalog.ActionNavigate:
			step.URL = site.BaseURL
		case catalog.ActionType:
			step.Value = strings.ReplaceAll(tmpl.Text, "{query}", it.Query)
		}
		if tmpl.Role != "" {
			step.Selectors = append([]string(nil), site.Selectors.Candidates(tmpl.Role)...)
		}
		p.Steps = append(p.Steps, step)
	}

	for _, role := range resultRoles() {
		if cands := site.Selectors.Candidates(role); len(cands) > 0 {
			p.Extraction[role] = append([]string(nil), cands...)
		}
	}
	return p, nil
}

func resultRoles() []string {
	return []string{
		catalog.RoleResultItem,
		catalog.RoleResultTitle,
		catalog.RoleResultLink,
		catalog.RoleResultPrice,
		catalog.RoleResultRating,
		catalog.RoleResultDesc,
	}
}
