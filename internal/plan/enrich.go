package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Enricher proposes additional extraction selectors for a compiled plan.
// Proposals are additive only: Apply ignores anything that would drop or
// reorder the compiled candidates.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, p Plan) (map[string][]string, error)
}

// NoopEnricher returns no proposals. It is the default when no endpoint is
// configured.
type NoopEnricher struct{}

func (NoopEnricher) Name() string { return "noop" }

func (NoopEnricher) Enrich(ctx context.Context, p Plan) (map[string][]string, error) {
	return nil, nil
}

// EndpointEnricher calls an external HTTP planner for extraction hints. Any
// failure degrades to the unenriched plan; enrichment never blocks a task.
type EndpointEnricher struct {
	EndpointURL string
	AuthToken   string
	Model       string
	Timeout     time.Duration
	Client      *http.Client
}

type enrichRequest struct {
	Goal       string              `json:"goal"`
	Category   string              `json:"category"`
	Site       string              `json:"site"`
	Model      string              `json:"model,omitempty"`
	Extraction map[string][]string `json:"extraction"`
}

type enrichResponse struct {
	Extraction map[string][]string `json:"extraction"`
}

func (e *EndpointEnricher) Name() string { return "endpoint" }

func (e *EndpointEnricher) Enrich(ctx context.Context, p Plan) (map[string][]string, error) {
	endpoint := strings.TrimSpace(e.EndpointURL)
	if endpoint == "" {
		return nil, nil
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := json.Marshal(enrichRequest{
		Goal:       p.Goal,
		Category:   string(p.Category),
		Site:       p.Site,
		Model:      strings.TrimSpace(e.Model),
		Extraction: p.Extraction,
	})
	if err != nil {
		return nil, fmt.Errorf("encode enrich request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build enrich request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(e.AuthToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := e.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call enrich endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read enrich response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("enrich endpoint status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded enrichResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode enrich response: %w", err)
	}
	return decoded.Extraction, nil
}

// Apply merges enricher proposals into the plan. Compiled candidates keep
// their rank; proposed selectors are appended after them, deduplicated, and
// restricted to roles the plan already extracts plus the known result roles.
// Steps are never touched.
func Apply(p Plan, proposals map[string][]string) Plan {
	if len(proposals) == 0 {
		return p
	}
	allowed := map[string]bool{}
	for _, role := range resultRoles() {
		allowed[role] = true
	}

	merged := make(map[string][]string, len(p.Extraction))
	for role, cands := range p.Extraction {
		merged[role] = append([]string(nil), cands...)
	}
	for role, cands := range proposals {
		if !allowed[role] {
			continue
		}
		seen := map[string]bool{}
		for _, c := range merged[role] {
			seen[c] = true
		}
		for _, c := range cands {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			merged[role] = append(merged[role], c)
			seen[c] = true
		}
	}
	p.Extraction = merged
	return p
}

// Enrich runs the enricher against the plan and applies whatever survives
// sanitization. Errors are logged and swallowed.
func Enrich(ctx context.Context, e Enricher, p Plan) Plan {
	if e == nil {
		return p
	}
	proposals, err := e.Enrich(ctx, p)
	if err != nil {
		log.Printf("enricher=%s site=%s err=%v", e.Name(), p.Site, err)
		return p
	}
	return Apply(p, proposals)
}
