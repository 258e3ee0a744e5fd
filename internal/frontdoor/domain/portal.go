package domain

import (
	"net/url"
	"slices"
	"strings"
)

// Portal is one externally hosted application of the federation.
type Portal struct {
	ID        string
	Title     string
	URL       string
	HiddenFor []string // upper-case roles that must not see the portal
}

// VisibleTo reports whether role may see the portal. An unknown or empty role
// sees everything, matching the dashboard's historical behaviour; the guard
// keeps role-less sessions out of the dashboard anyway.
func (p Portal) VisibleTo(role string) bool {
	return !slices.Contains(p.HiddenFor, strings.ToUpper(role))
}

// AllowList is the fixed set of origins trusted to receive a forwarded
// credential.
type AllowList struct {
	origins map[string]struct{}
}

// NewAllowList normalizes each entry to its origin. Entries that are not
// absolute http(s) URLs are skipped.
func NewAllowList(entries ...string) AllowList {
	a := AllowList{origins: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		u, err := url.Parse(strings.TrimSpace(e))
		if err != nil {
			continue
		}
		if o := Origin(u); o != "" {
			a.origins[o] = struct{}{}
		}
	}
	return a
}

// Contains reports an exact origin match.
func (a AllowList) Contains(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := a.origins[origin]
	return ok
}

// Origins returns the allowed origins sorted.
func (a AllowList) Origins() []string {
	out := make([]string, 0, len(a.origins))
	for o := range a.origins {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// Origin returns scheme://host[:port] for absolute http(s) URLs and "" for
// anything else. Scheme and host are lower-cased, default ports dropped.
func Origin(u *url.URL) string {
	if u == nil || u.Host == "" || u.User != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return scheme + "://" + host + ":" + port
	}
	if strings.Contains(host, ":") {
		return scheme + "://[" + host + "]"
	}
	return scheme + "://" + host
}
