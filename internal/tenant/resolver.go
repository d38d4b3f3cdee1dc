package tenant

import (
	"net"
	"strings"
)

// ResolveHost maps a request host to the store subdomain label. The second
// return is false for main-application traffic: IP literals, single-label
// hosts, the bare domain and the "www" prefix.
//
// Only the last two labels are treated as the base domain, so hosts under a
// multi-label public suffix (e.g. "acme.shop.co.uk") resolve the wrong label.
// Known limitation; fixing it needs a public-suffix list.
func ResolveHost(host string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return "", false
	}

	// Everything before the two base-domain labels; the first label is the
	// store subdomain.
	prefix := labels[:len(labels)-2]
	if prefix[0] == "" || prefix[0] == "www" {
		return "", false
	}
	return prefix[0], true
}
