package addrutil

import (
	"net"
	"strconv"
	"strings"
)

// NormalizeBaseURL adds an http:// scheme to bare host:port addresses.
func NormalizeBaseURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

// Host returns the host part of addr, which may be "host:port", "[v6]:port",
// an unbracketed IPv6 "v6:port" or a bare host.
func Host(addr string) string {
	a := strings.TrimSpace(addr)
	if a == "" {
		return ""
	}

	// Fast path: "host:port" (IPv4 or bracketed IPv6).
	if h, _, err := net.SplitHostPort(a); err == nil {
		return h
	}

	// Handle unbracketed IPv6 "host:port" by peeling off the last ":port".
	if strings.Count(a, ":") > 1 && !strings.HasPrefix(a, "[") {
		if ip := net.ParseIP(a); ip != nil {
			return a
		}
		if last := strings.LastIndexByte(a, ':'); last > 0 && last < len(a)-1 {
			host := a[:last]
			port := a[last+1:]
			if _, err := strconv.Atoi(port); err == nil {
				return host
			}
		}
	}

	// If there's no port at all, accept raw IPs/hosts.
	if strings.Contains(a, ":") {
		return strings.Trim(a, "[]")
	}
	return a
}
