package embeddings

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://api.openai.com/v1"

// endpointRules run in order; the first match rejects the base URL before
// the API key is ever sent to it.
var endpointRules = []struct {
	reject func(*url.URL) bool
	reason string
}{
	{func(u *url.URL) bool { return !u.IsAbs() || u.Host == "" }, "absolute URL with host is required"},
	{func(u *url.URL) bool { return u.User != nil }, "userinfo is not allowed"},
	{func(u *url.URL) bool { return u.RawQuery != "" || u.Fragment != "" }, "query and fragment are not allowed"},
	{func(u *url.URL) bool { return !strings.EqualFold(u.Scheme, "https") }, "https is required"},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL accepts only absolute https endpoints whose host is in
// allowedHosts (api.openai.com when none are given).
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	base := normalizeBaseURL(baseURL)
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
	}
	for _, r := range endpointRules {
		if r.reject(u) {
			return fmt.Errorf("invalid OPENAI_BASE_URL %q: %s", base, r.reason)
		}
	}
	if host := strings.ToLower(u.Hostname()); !newAllowlist(allowedHosts).allows(host) {
		return fmt.Errorf("invalid OPENAI_BASE_URL %q: host %q is not in OPENAI_ALLOWED_HOSTS", base, host)
	}
	return nil
}

type allowlist map[string]bool

// newAllowlist reduces entries like "https://proxy.internal:8443/" to bare
// host names. An empty list allows only the default endpoint's host.
func newAllowlist(hosts []string) allowlist {
	a := allowlist{}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if i := strings.Index(h, "://"); i >= 0 {
			h = h[i+3:]
		}
		h, _, _ = strings.Cut(h, "/")
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		}
		if h != "" {
			a[h] = true
		}
	}
	if len(a) == 0 {
		u, _ := url.Parse(defaultBaseURL)
		a[u.Hostname()] = true
	}
	return a
}

func (a allowlist) allows(host string) bool { return a[host] }

// SplitHosts parses a comma separated OPENAI_ALLOWED_HOSTS value.
func SplitHosts(v string) []string {
	var out []string
	for _, h := range strings.Split(v, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
