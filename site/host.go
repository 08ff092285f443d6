package site

import (
	"net"
	"strings"

	"github.com/gobwas/glob"
)

// hostMatcher matches a hostname against a set of registrable domains,
// including any of their subdomains.
type hostMatcher struct {
	g glob.Glob
}

// newHostMatcher compiles a matcher for domains and their subdomains.
// It panics if a domain produces an invalid pattern; domains are fixed at
// compile time.
func newHostMatcher(domains ...string) hostMatcher {
	alternatives := make([]string, 0, 2*len(domains))
	for _, d := range domains {
		alternatives = append(alternatives, d, "*."+d)
	}
	return hostMatcher{g: glob.MustCompile("{" + strings.Join(alternatives, ",") + "}")}
}

// Match reports whether hostname belongs to one of the domains.
func (m hostMatcher) Match(hostname string) bool {
	return m.g.Match(normalizeHost(hostname))
}

// normalizeHost lowercases hostname and strips a port and trailing dot.
func normalizeHost(hostname string) string {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	return strings.TrimSuffix(hostname, ".")
}
