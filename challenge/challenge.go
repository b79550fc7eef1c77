// Package challenge detects anti-automation interstitials on rendered pages
// and tracks the resolution state of one rendered attempt.
package challenge

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// State is the challenge lifecycle of a single rendered attempt.
// Transitions are monotonic: none|detected → resolving → resolved|exhausted.
// A fresh page load starts a new State rather than reusing one.
type State int

const (
	StateNone State = iota
	StateDetected
	StateResolving
	StateResolved
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateDetected:
		return "detected"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateExhausted
}

// Tracker enforces forward-only state transitions for one rendered attempt.
// Calls that would move the state backward are ignored.
type Tracker struct {
	state State
}

// NewTracker starts a fresh attempt at StateNone.
func NewTracker() *Tracker {
	return &Tracker{state: StateNone}
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// MarkDetected records the first challenge observation.
func (t *Tracker) MarkDetected() {
	if t.state < StateDetected {
		t.state = StateDetected
	}
}

// MarkResolving records that the resolution wait loop has begun.
func (t *Tracker) MarkResolving() {
	if t.state == StateDetected {
		t.state = StateResolving
	}
}

// MarkResolved records that a poll came back clean. A page that never
// presented a challenge stays at StateNone.
func (t *Tracker) MarkResolved() {
	if t.state == StateDetected || t.state == StateResolving {
		t.state = StateResolved
	}
}

// MarkExhausted records that the retry budget ran out.
func (t *Tracker) MarkExhausted() {
	if !t.state.Terminal() {
		t.state = StateExhausted
	}
}

// markers are verification phrases shown by anti-automation interstitials.
var markers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"verify you are human",
	"robot check",
	"security check",
	"prove you are not a robot",
	"checking your browser",
	"javascript is disabled",
	"attention required",
	"just a moment",
	"awswaf",
}

// signatures are iframe/script fingerprints of known challenge platforms.
var signatures = []string{
	"challenges.cloudflare.com",
	"cdn-cgi/challenge-platform",
	"captcha-delivery.com",
	"awswaf.com",
	"/awswaf/",
	"px-captcha",
}

// minBodyText is the visible-text length below which a scripted page is
// treated as a challenge shell rather than real content.
const minBodyText = 40

// Detector inspects a loaded page for challenge signatures. It reports only
// StateNone or StateDetected; driving a detection through resolving to a
// terminal state is the orchestrator's job.
type Detector struct{}

// NewDetector returns a Detector with the built-in marker set.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect inspects the page title and rendered HTML for challenge markers.
func (d *Detector) Detect(title, html string) State {
	lowerHTML := strings.ToLower(html)

	for _, sig := range signatures {
		if strings.Contains(lowerHTML, sig) {
			return StateDetected
		}
	}

	lowerTitle := strings.ToLower(title)
	bodyText := visibleText(html)
	lowerBody := strings.ToLower(bodyText)
	for _, m := range markers {
		if strings.Contains(lowerTitle, m) || strings.Contains(lowerBody, m) {
			return StateDetected
		}
	}

	// A near-empty scripted body with no real content is the shape of an
	// interstitial still running its verification script.
	if len(strings.TrimSpace(bodyText)) < minBodyText && strings.Contains(lowerHTML, "<script") {
		return StateDetected
	}

	return StateNone
}

// visibleText extracts the visible body text, dropping script and style
// content so marker matching sees what a human would.
func visibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}
