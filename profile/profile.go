package profile

import (
	"time"

	"github.com/andybalholm/cascadia"
)

// Profile is the immutable acquisition/extraction configuration resolved for
// a URL. It is created once per request and never mutated; With returns an
// adjusted copy.
type Profile struct {
	// Name identifies the site entry ("morningstar", "generic", ...).
	Name string

	// TableSelectors is the ordered list of CSS selectors used to locate
	// financial tables. Order matters: earlier selectors take precedence
	// when the same element matches more than one.
	TableSelectors []string

	// Keywords are the financial terms scored and extracted for this site.
	Keywords []string

	// Timeout bounds the whole acquisition for this site.
	Timeout time.Duration

	// WaitTime bounds the rendered attempt's initial page-load wait.
	WaitTime time.Duration

	// DownloadDelay is the politeness pause before a rendered navigation.
	DownloadDelay time.Duration

	// RequiresRender marks sites that ordinarily need JavaScript execution
	// to show any financial content.
	RequiresRender bool

	// MinScore is the quality threshold an attempt must meet.
	MinScore int
}

// With returns a copy of the profile with the given overrides applied.
// Zero-valued override fields leave the profile's value in place. Extra
// selectors and keywords are appended, never replacing the site's own.
func (p Profile) With(o Overrides) Profile {
	out := p
	// Copy slices so the source profile stays untouched.
	out.TableSelectors = append([]string(nil), p.TableSelectors...)
	out.Keywords = append([]string(nil), p.Keywords...)

	out.TableSelectors = append(out.TableSelectors, sanitizeSelectors(o.ExtraSelectors)...)
	for _, kw := range o.ExtraKeywords {
		if kw != "" {
			out.Keywords = append(out.Keywords, kw)
		}
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	if o.MinScore > 0 {
		out.MinScore = o.MinScore
	}
	return out
}

// Overrides carries per-request adjustments to a resolved profile.
type Overrides struct {
	ExtraSelectors []string
	ExtraKeywords  []string
	Timeout        time.Duration
	MinScore       int
}

// sanitizeSelectors drops selectors that do not parse as CSS, so a
// caller-supplied selector can never break extraction downstream.
func sanitizeSelectors(selectors []string) []string {
	var out []string
	for _, s := range selectors {
		if s == "" {
			continue
		}
		if _, err := cascadia.Parse(s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
