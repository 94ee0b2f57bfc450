// Package extract pulls structured results out of the final page state.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
)

// Result is one extracted item. URL is always absolute http(s); records that
// cannot produce one are dropped.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Price       string `json:"price,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

// Sources a result can come from.
const (
	SourceTemplate = "template"
	SourceFallback = "fallback"
)

// Extractor runs the site-template pass first and falls back to a generic
// anchor sweep when the template yield is below MinTemplateResults.
// Extraction never fails: on any error the pass yields zero records and the
// other pass still runs.
type Extractor struct {
	MinTemplateResults int
	MaxResults         int
}

func New() *Extractor {
	return &Extractor{MinTemplateResults: 3, MaxResults: 10}
}

// rawRecord is the shape the in-page script emits before normalization.
type rawRecord struct {
	Title       string `json:"title"`
	Href        string `json:"href"`
	Price       string `json:"price"`
	Rating      string `json:"rating"`
	Description string `json:"description"`
}

// Extract collects results from the session's current page. selectors maps
// result roles to their ranked candidates, as compiled into the plan.
func (e *Extractor) Extract(ctx context.Context, s browser.Session, selectors map[string][]string) []Result {
	pageURL, err := s.CurrentURL(ctx)
	if err != nil {
		log.Printf("extract: read page url: %v", err)
	}
	base, _ := url.Parse(strings.TrimSpace(pageURL))

	results := e.templatePass(ctx, s, selectors, base)
	if len(results) < e.minTemplate() {
		fallback := e.fallbackPass(ctx, s, base)
		results = append(results, fallback...)
	}
	return e.dedupe(results)
}

func (e *Extractor) minTemplate() int {
	if e.MinTemplateResults > 0 {
		return e.MinTemplateResults
	}
	return 3
}

func (e *Extractor) maxResults() int {
	if e.MaxResults > 0 {
		return e.MaxResults
	}
	return 10
}

func (e *Extractor) templatePass(ctx context.Context, s browser.Session, selectors map[string][]string, base *url.URL) []Result {
	items := selectors[catalog.RoleResultItem]
	if len(items) == 0 {
		return nil
	}
	script := templateScript(items, selectors, e.maxResults())
	raw, err := s.EvaluateString(ctx, script)
	if err != nil {
		log.Printf("extract: template pass: %v", err)
		return nil
	}
	return e.normalize(decodeRecords(raw), base, SourceTemplate)
}

func (e *Extractor) fallbackPass(ctx context.Context, s browser.Session, base *url.URL) []Result {
	raw, err := s.EvaluateString(ctx, fallbackScript(e.maxResults()))
	if err != nil {
		log.Printf("extract: fallback pass: %v", err)
		return nil
	}
	return e.normalize(decodeRecords(raw), base, SourceFallback)
}

func decodeRecords(raw string) []rawRecord {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	var records []rawRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("extract: decode records: %v", err)
		return nil
	}
	return records
}

// normalize enforces the absolute-URL requirement and trims noise. A record
// with no resolvable http(s) URL is dropped regardless of its other fields.
func (e *Extractor) normalize(records []rawRecord, base *url.URL, source string) []Result {
	out := make([]Result, 0, len(records))
	for _, rec := range records {
		absolute := absoluteURL(rec.Href, base)
		if absolute == "" {
			continue
		}
		title := clip(strings.TrimSpace(rec.Title), 200)
		if title == "" {
			title = absolute
		}
		out = append(out, Result{
			Title:       title,
			URL:         absolute,
			Price:       clip(strings.TrimSpace(rec.Price), 40),
			Rating:      clip(strings.TrimSpace(rec.Rating), 40),
			Description: clip(strings.TrimSpace(rec.Description), 300),
			Source:      source,
		})
	}
	return out
}

func absoluteURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

// clip bounds a field to max runes so one noisy page cannot bloat a task
// snapshot.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// dedupe drops later records that share a URL with an earlier one, so the
// template pass always outranks the fallback sweep.
func (e *Extractor) dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
		if len(out) >= e.maxResults() {
			break
		}
	}
	return out
}

// templateScript walks the first matching item-selector candidate and reads
// each field through its own candidate list, first hit wins.
func templateScript(items []string, selectors map[string][]string, limit int) string {
	field := func(role string) string {
		return jsArray(selectors[role])
	}
	return fmt.Sprintf(`(() => {
	const pick = (root, cands) => {
		for (const sel of cands) {
			try {
				const node = root.querySelector(sel);
				if (node) return node;
			} catch (_err) {}
		}
		return null;
	};
	const text = (node) => node ? String(node.innerText || node.textContent || "").trim() : "";
	let nodes = [];
	for (const sel of %s) {
		try {
			nodes = Array.from(document.querySelectorAll(sel));
		} catch (_err) { nodes = []; }
		if (nodes.length > 0) break;
	}
	const out = [];
	for (const node of nodes.slice(0, %d)) {
		const link = pick(node, %s) || node.closest("a") || pick(node, ["a[href]"]);
		out.push({
			title: text(pick(node, %s)) || text(link),
			href: link ? String(link.getAttribute("href") || "") : "",
			price: text(pick(node, %s)),
			rating: (() => {
				const r = pick(node, %s);
				if (!r) return "";
				return String(r.getAttribute("aria-label") || r.innerText || r.textContent || "").trim();
			})(),
			description: text(pick(node, %s)),
		});
	}
	return JSON.stringify(out);
	})()`,
		jsArray(items), limit,
		field(catalog.RoleResultLink),
		field(catalog.RoleResultTitle),
		field(catalog.RoleResultPrice),
		field(catalog.RoleResultRating),
		field(catalog.RoleResultDesc),
	)
}

// fallbackScript sweeps visible anchors with enough text to plausibly be a
// result, skipping navigation chrome.
func fallbackScript(limit int) string {
	return fmt.Sprintf(`(() => {
	const seen = new Set();
	const out = [];
	for (const a of Array.from(document.querySelectorAll("a[href]"))) {
		const href = String(a.getAttribute("href") || "").trim();
		if (!href || href.startsWith("#") || href.startsWith("javascript:")) continue;
		const label = String(a.innerText || a.textContent || "").trim();
		if (label.length < 15) continue;
		const rect = a.getBoundingClientRect();
		if (rect.width < 2 || rect.height < 2) continue;
		if (a.closest("nav, header, footer")) continue;
		if (seen.has(href)) continue;
		seen.add(href);
		out.push({title: label, href: href, price: "", rating: "", description: ""});
		if (out.length >= %d) break;
	}
	return JSON.stringify(out);
	})()`, limit)
}

func jsArray(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, fmt.Sprintf("%q", v))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
