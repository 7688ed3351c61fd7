package utils

import (
	"net"
	"net/http"
	"strings"
)

// proxyHeaders are consulted in order of preference
var proxyHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
	"X-Client-IP",
}

// ClientIP extracts the client address of a request. Proxy headers are only
// honoured when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, header := range proxyHeaders {
			value := r.Header.Get(header)
			if value == "" {
				continue
			}
			// X-Forwarded-For can hold a chain; the first hop is the client
			if first := strings.TrimSpace(strings.Split(value, ",")[0]); first != "" {
				return normalizeLoopback(first)
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalizeLoopback(r.RemoteAddr)
	}
	return normalizeLoopback(ip)
}

func normalizeLoopback(ip string) string {
	if ip == "::1" {
		return "127.0.0.1"
	}
	return ip
}
