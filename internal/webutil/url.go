package webutil

import (
	"net/url"
	"strings"
)

// DecodeDDGRedirect unwraps DuckDuckGo's /l/?uddg=<urlencoded> result links.
func DecodeDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}

func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// NormalizeLinkedInURL reduces profile links to a stable comparison key:
// lowercase host without www, no query, no trailing slash. Used as the
// primary de-dup key when merging discovery runs.
func NormalizeLinkedInURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimRight(u.Path, "/")
	return host + path
}
