package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Category is the closed classification of a goal's domain. Generic is the
// total fallback, so every goal resolves to a category.
type Category string

const (
	CategoryShopping   Category = "shopping"
	CategoryNews       Category = "news"
	CategoryJobs       Category = "jobs"
	CategoryTravel     Category = "travel"
	CategoryVideo      Category = "video"
	CategoryRestaurant Category = "restaurant"
	CategoryBooks      Category = "books"
	CategoryGeneric    Category = "generic"
)

func Categories() []Category {
	return []Category{
		CategoryShopping,
		CategoryNews,
		CategoryJobs,
		CategoryTravel,
		CategoryVideo,
		CategoryRestaurant,
		CategoryBooks,
		CategoryGeneric,
	}
}

// ActionKind is the closed set of step kinds a site descriptor may declare.
type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionType     ActionKind = "type"
	ActionClick    ActionKind = "click"
	ActionWaitFor  ActionKind = "waitFor"
	ActionScroll   ActionKind = "scroll"
	ActionExtract  ActionKind = "extract"
)

// Logical element roles referenced by step templates and the extractor.
const (
	RoleSearchInput  = "search_input"
	RoleSearchSubmit = "search_submit"
	RoleResultItem   = "result_item"
	RoleResultTitle  = "result_title"
	RoleResultLink   = "result_link"
	RoleResultPrice  = "result_price"
	RoleResultRating = "result_rating"
	RoleResultDesc   = "result_description"
)

// StepTemplate is one unbound step in a site's interaction recipe. The text
// parameter slot "{query}" is filled from the goal's query terms at compile
// time.
type StepTemplate struct {
	Kind     ActionKind `yaml:"kind"`
	Role     string     `yaml:"role,omitempty"`
	Text     string     `yaml:"text,omitempty"`
	Pixels   int        `yaml:"pixels,omitempty"`
	Required bool       `yaml:"required,omitempty"`
}

// SelectorSet maps a logical role to its ranked candidate selectors,
// most specific first.
type SelectorSet map[string][]string

// Candidates returns the ranked candidates for role, or nil.
func (s SelectorSet) Candidates(role string) []string {
	if s == nil {
		return nil
	}
	return s[role]
}

// SiteDescriptor describes how to interact with and extract from one
// category's target website. Read-only at runtime.
type SiteDescriptor struct {
	Category  Category       `yaml:"category"`
	Name      string         `yaml:"name"`
	BaseURL   string         `yaml:"base_url"`
	Steps     []StepTemplate `yaml:"steps"`
	Selectors SelectorSet    `yaml:"selectors"`
}

// Catalog maps each category to its site descriptor.
type Catalog struct {
	sites map[Category]SiteDescriptor
}

// New builds a catalog from explicit descriptors. Callers own validation;
// use Load for the builtin-plus-overlay path.
func New(sites ...SiteDescriptor) *Catalog {
	c := &Catalog{sites: make(map[Category]SiteDescriptor, len(sites))}
	for _, site := range sites {
		c.sites[site.Category] = site
	}
	return c
}

// ConfigurationError marks a malformed catalog entry. It is fatal at startup
// and never produced per task.
type ConfigurationError struct {
	Site   string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog: site %q misconfigured: %s", e.Site, e.Detail)
}

// Lookup returns the descriptor for category, falling through to the generic
// site for categories the catalog does not carry, so lookup never fails.
func (c *Catalog) Lookup(category Category) SiteDescriptor {
	if site, ok := c.sites[category]; ok {
		return site
	}
	return c.sites[CategoryGeneric]
}

func (c *Catalog) Sites() []SiteDescriptor {
	out := make([]SiteDescriptor, 0, len(c.sites))
	for _, category := range Categories() {
		if site, ok := c.sites[category]; ok {
			out = append(out, site)
		}
	}
	return out
}

// Validate enforces the catalog invariants: a generic fallback site exists,
// every site has at least one step template and an absolute base URL, and
// every role referenced by a step template has at least one selector
// candidate.
func (c *Catalog) Validate() error {
	if _, ok := c.sites[CategoryGeneric]; !ok {
		return &ConfigurationError{Site: "generic", Detail: "generic fallback site is required"}
	}
	for _, site := range c.sites {
		if err := validateSite(site); err != nil {
			return err
		}
	}
	return nil
}

func validateSite(site SiteDescriptor) error {
	name := strings.TrimSpace(site.Name)
	if name == "" {
		name = string(site.Category)
	}
	if len(site.Steps) == 0 {
		return &ConfigurationError{Site: name, Detail: "no step templates declared"}
	}
	parsed, err := url.Parse(strings.TrimSpace(site.BaseURL))
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return &ConfigurationError{Site: name, Detail: fmt.Sprintf("base url %q is not absolute", site.BaseURL)}
	}
	for index, step := range site.Steps {
		switch step.Kind {
		case ActionNavigate, ActionType, ActionClick, ActionWaitFor, ActionScroll, ActionExtract:
		default:
			return &ConfigurationError{Site: name, Detail: fmt.Sprintf("step %d has unknown kind %q", index, step.Kind)}
		}
		if step.Kind == ActionNavigate || step.Kind == ActionScroll || step.Kind == ActionExtract {
			continue
		}
		role := strings.TrimSpace(step.Role)
		if role == "" {
			return &ConfigurationError{Site: name, Detail: fmt.Sprintf("step %d (%s) has no target role", index, step.Kind)}
		}
		if len(site.Selectors.Candidates(role)) == 0 {
			return &ConfigurationError{Site: name, Detail: fmt.Sprintf("role %q has no selector candidates", role)}
		}
	}
	return nil
}
