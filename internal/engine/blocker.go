package engine

import (
	"context"
	"strings"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
)

// Blocker describes a page state that automation cannot get past.
type Blocker struct {
	Kind   string
	Detail string
}

var humanSignals = []string{
	"captcha",
	"hcaptcha",
	"recaptcha",
	"verify you are human",
	"prove you are human",
	"are you a robot",
	"confirm this search was made by a human",
	"complete the following challenge",
	"security check",
	"checking if the site connection is secure",
}

// classifyBlocker inspects page text for bot-wall and challenge markers.
// Empty kind means no blocker.
func classifyBlocker(url, title, bodyText string) Blocker {
	haystack := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(url),
		strings.TrimSpace(title),
		strings.TrimSpace(bodyText),
	}, " "))
	if haystack == "" {
		return Blocker{}
	}
	for _, signal := range humanSignals {
		if strings.Contains(haystack, signal) {
			return Blocker{Kind: "human_verification_required", Detail: "human verification challenge detected"}
		}
	}
	if strings.Contains(haystack, "access denied") && strings.Contains(haystack, "bot") {
		return Blocker{Kind: "bot_blocked", Detail: "target denied automated access"}
	}
	return Blocker{}
}

// probeBlocker samples the live page and classifies it. Probe errors read as
// no blocker; the step that triggered the probe still reports its own
// failure.
func probeBlocker(ctx context.Context, s browser.Session) Blocker {
	pageURL, err := s.CurrentURL(ctx)
	if err != nil {
		return Blocker{}
	}
	title, err := s.EvaluateString(ctx, `String(document.title || "")`)
	if err != nil {
		return Blocker{}
	}
	body, err := s.EvaluateString(ctx, `String((document.body && document.body.innerText || "")).slice(0, 4000)`)
	if err != nil {
		return Blocker{}
	}
	return classifyBlocker(pageURL, title, body)
}
