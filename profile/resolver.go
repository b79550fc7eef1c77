package profile

import (
	"net/url"
	"strings"
)

// hostPattern maps a URL pattern to a site entry. Host matching is
// suffix-based so subdomains resolve to the parent site; an optional path
// prefix disambiguates sites sharing a host (e.g. google.com/finance).
type hostPattern struct {
	host string
	path string
	site string
}

// patterns are checked in order; the first match wins.
var patterns = []hostPattern{
	{host: "morningstar.com", site: "morningstar"},
	{host: "finance.yahoo.com", site: "yahoo"},
	{host: "yahoo.com", path: "/quote", site: "yahoo"},
	{host: "marketwatch.com", site: "marketwatch"},
	{host: "google.com", path: "/finance", site: "google"},
}

// Resolve maps a URL to its acquisition/extraction profile. It is total:
// unparseable URLs and unmatched hosts degrade to the generic profile,
// never to an error.
func Resolve(rawURL string) Profile {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Generic
	}

	host := strings.ToLower(u.Hostname())
	for _, p := range patterns {
		if !hostMatches(host, p.host) {
			continue
		}
		if p.path != "" && !strings.HasPrefix(u.Path, p.path) {
			continue
		}
		return ByName(p.site)
	}
	return Generic
}

// hostMatches reports whether host equals pattern or is a subdomain of it.
func hostMatches(host, pattern string) bool {
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}
