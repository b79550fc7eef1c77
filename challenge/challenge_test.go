package challenge

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNone, "none"},
		{StateDetected, "detected"},
		{StateResolving, "resolving"},
		{StateResolved, "resolved"},
		{StateExhausted, "exhausted"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestTracker_HappyPath(t *testing.T) {
	tr := NewTracker()
	if tr.State() != StateNone {
		t.Fatalf("fresh tracker at %v, want none", tr.State())
	}
	tr.MarkDetected()
	tr.MarkResolving()
	tr.MarkResolved()
	if tr.State() != StateResolved {
		t.Errorf("state = %v, want resolved", tr.State())
	}
}

func TestTracker_Exhaustion(t *testing.T) {
	tr := NewTracker()
	tr.MarkDetected()
	tr.MarkResolving()
	tr.MarkExhausted()
	if tr.State() != StateExhausted {
		t.Errorf("state = %v, want exhausted", tr.State())
	}
}

func TestTracker_NeverMovesBackward(t *testing.T) {
	tr := NewTracker()
	tr.MarkDetected()
	tr.MarkResolving()
	tr.MarkResolved()

	tr.MarkDetected()
	tr.MarkResolving()
	tr.MarkExhausted()
	if tr.State() != StateResolved {
		t.Errorf("terminal state regressed to %v", tr.State())
	}
}

func TestTracker_CleanPageStaysNone(t *testing.T) {
	tr := NewTracker()
	tr.MarkResolved()
	if tr.State() != StateNone {
		t.Errorf("resolving without detection moved state to %v", tr.State())
	}
}

func TestDetect_Markers(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name  string
		title string
		html  string
		want  State
	}{
		{
			"clean financial page",
			"AAPL Dividend History",
			`<html><body><table><tr><td>$0.25</td><td>quarterly dividend payout for shareholders of record</td></tr></table></body></html>`,
			StateNone,
		},
		{
			"captcha phrase in body",
			"Morningstar",
			`<html><body><p>Please complete the CAPTCHA to continue to the requested page.</p></body></html>`,
			StateDetected,
		},
		{
			"verification title",
			"Just a moment...",
			`<html><body><p>Reviewing the security of your connection before proceeding onward.</p></body></html>`,
			StateDetected,
		},
		{
			"javascript disabled notice",
			"Yahoo Finance",
			`<html><body><p>We noticed that JavaScript is disabled in your browser settings.</p></body></html>`,
			StateDetected,
		},
		{
			"robot check",
			"MarketWatch",
			`<html><body><div>Robot Check: verify you are human before we show the quote.</div></body></html>`,
			StateDetected,
		},
		{
			"cloudflare challenge script",
			"Site",
			`<html><body><p>Stock quotes and dividend history for many listed companies here.</p><script src="https://challenges.cloudflare.com/turnstile/v0/api.js"></script></body></html>`,
			StateDetected,
		},
		{
			"aws waf path",
			"Site",
			`<html><body><p>Quarterly earnings, dividend yield, and payout figures listed.</p><script src="/awswaf/challenge.js"></script></body></html>`,
			StateDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.title, tt.html); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetect_NearEmptyScriptedShell(t *testing.T) {
	d := NewDetector()

	shell := `<html><head><script>window.__verify()</script></head><body></body></html>`
	if got := d.Detect("", shell); got != StateDetected {
		t.Errorf("empty scripted shell not detected: %v", got)
	}

	// Short but unscripted pages are just thin content, not challenges.
	thin := `<html><body><p>hello</p></body></html>`
	if got := d.Detect("", thin); got != StateNone {
		t.Errorf("thin static page misdetected: %v", got)
	}
}

func TestDetect_MarkerInsideScriptIgnored(t *testing.T) {
	d := NewDetector()

	// A marker phrase inside script source is not visible to the user and
	// must not trip detection on an otherwise content-rich page.
	html := `<html><body>
		<table><tr><td>Dividend</td><td>$0.25</td><td>2024-01-15</td></tr></table>
		<p>Full payout history with yield percentages and record dates below.</p>
		<script>var msg = "robot check placeholder used by the consent widget";</script>
	</body></html>`
	if got := d.Detect("AAPL Dividends", html); got != StateNone {
		t.Errorf("scripted marker tripped detection: %v", got)
	}
}
