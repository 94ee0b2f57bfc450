package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overlayFile is the YAML shape accepted by Load. Each entry either replaces
// a builtin site wholesale or patches parts of it.
type overlayFile struct {
	Sites []overlaySite `yaml:"sites"`
}

type overlaySite struct {
	Category  Category            `yaml:"category"`
	Name      string              `yaml:"name"`
	BaseURL   string              `yaml:"base_url"`
	Steps     []StepTemplate      `yaml:"steps"`
	Selectors map[string][]string `yaml:"selectors"`
}

// Load builds the catalog from the builtin defaults plus an optional YAML
// overlay file. An empty path returns the builtin catalog unchanged.
func Load(path string) (*Catalog, error) {
	c := Builtin()
	if path == "" {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog overlay: %w", err)
	}
	var overlay overlayFile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse catalog overlay %s: %w", path, err)
	}

	for _, site := range overlay.Sites {
		if site.Category == "" {
			return nil, &ConfigurationError{Site: site.Name, Detail: "overlay site missing category"}
		}
		base, ok := c.sites[site.Category]
		if !ok {
			base = SiteDescriptor{Category: site.Category, Selectors: SelectorSet{}}
		}
		if site.Name != "" {
			base.Name = site.Name
		}
		if site.BaseURL != "" {
			base.BaseURL = site.BaseURL
		}
		if len(site.Steps) > 0 {
			base.Steps = site.Steps
		}
		if len(site.Selectors) > 0 {
			merged := SelectorSet{}
			for role, cands := range base.Selectors {
				merged[role] = cands
			}
			for role, cands := range site.Selectors {
				merged[role] = cands
			}
			base.Selectors = merged
		}
		c.sites[site.Category] = base
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
