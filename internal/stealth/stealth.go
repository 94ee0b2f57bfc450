// Package stealth shapes a task's browser fingerprint and pacing so the
// automation reads as a person to bot walls.
package stealth

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
)

// Profile controls the pacing envelope. All delays are uniform draws from
// the [Min, Max] range.
type Profile struct {
	StepPauseMinMS int
	StepPauseMaxMS int
	PageSettleMS   int
	TypePauseMinMS int
	TypePauseMaxMS int
}

// Pacer draws delays from a seeded source so a task's timing is replayable
// from its seed.
type Pacer struct {
	profile Profile
	rng     *rand.Rand
}

// NewPacer builds a pacer for mode. Unknown or disabled modes return nil and
// callers treat a nil pacer as no pacing.
func NewPacer(mode string, seed int64) *Pacer {
	profile, enabled := profileForMode(mode)
	if !enabled {
		return nil
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Pacer{profile: profile, rng: rand.New(rand.NewSource(seed))}
}

func profileForMode(mode string) (Profile, bool) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "off", "disabled", "none", "false", "0":
		return Profile{}, false
	case "", "on", "true", "enabled", "balanced":
		return Profile{
			StepPauseMinMS: 280,
			StepPauseMaxMS: 900,
			PageSettleMS:   2500,
			TypePauseMinMS: 70,
			TypePauseMaxMS: 220,
		}, true
	case "aggressive":
		return Profile{
			StepPauseMinMS: 550,
			StepPauseMaxMS: 1800,
			PageSettleMS:   4000,
			TypePauseMinMS: 110,
			TypePauseMaxMS: 360,
		}, true
	default:
		return Profile{}, false
	}
}

// BetweenSteps sleeps a drawn inter-step delay, returning early on ctx
// cancellation.
func (p *Pacer) BetweenSteps(ctx context.Context) {
	if p == nil {
		return
	}
	p.sleep(ctx, p.drawMS(p.profile.StepPauseMinMS, p.profile.StepPauseMaxMS))
}

// AfterNavigate gives the page time to settle before the first probe.
func (p *Pacer) AfterNavigate(ctx context.Context) {
	if p == nil {
		return
	}
	p.sleep(ctx, time.Duration(p.profile.PageSettleMS)*time.Millisecond)
}

// BeforeSubmit pauses between filling an input and submitting it.
func (p *Pacer) BeforeSubmit(ctx context.Context) {
	if p == nil {
		return
	}
	p.sleep(ctx, p.drawMS(p.profile.TypePauseMinMS, p.profile.TypePauseMaxMS))
}

func (p *Pacer) drawMS(min, max int) time.Duration {
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+p.rng.Intn(max-min+1)) * time.Millisecond
}

func (p *Pacer) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Desktop Chrome fingerprints. The first entry mirrors what most of the
// target sites see from real macOS traffic.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var viewports = []struct{ Width, Height int }{
	{1366, 768},
	{1280, 720},
	{1440, 900},
	{1920, 1080},
}

// SessionOptions picks a fingerprint for one task. The draw is seeded so a
// task replays with the same fingerprint.
func SessionOptions(seed int64) browser.SessionOptions {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	vp := viewports[rng.Intn(len(viewports))]
	return browser.SessionOptions{
		UserAgent:      userAgents[rng.Intn(len(userAgents))],
		ViewportWidth:  vp.Width,
		ViewportHeight: vp.Height,
	}
}
