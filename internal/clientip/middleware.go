// Package clientip resolves the client address behind reverse proxies and
// exposes a spoof-resistant key for rate limiting.
package clientip

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strings"
)

type contextKey struct{}

// Info contains extracted client IP information
type Info struct {
	// Primary is the most trusted single IP, used for logging.
	Primary string

	// RateLimitKey joins every IP seen on the request. RemoteAddr is always
	// part of it, so spoofed headers cannot collapse distinct clients.
	RateLimitKey string
}

// trustedHeaders in priority order. X-Forwarded-For is handled separately:
// only its first hop counts.
var trustedHeaders = []string{
	"Fly-Client-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// Middleware stores Info in the request context and rewrites r.RemoteAddr to
// the primary IP.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := extract(r)
		r.RemoteAddr = info.Primary
		ctx := context.WithValue(r.Context(), contextKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves Info from context. Zero Info if absent.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(contextKey{}).(Info); ok {
		return info
	}
	return Info{}
}

// FromRequest is a convenience wrapper around FromContext
func FromRequest(r *http.Request) Info {
	return FromContext(r.Context())
}

func extract(r *http.Request) Info {
	seen := map[string]bool{}
	remote := hostOnly(r.RemoteAddr)
	if remote != "" {
		seen[remote] = true
	}

	var primary string
	candidates := make([]string, 0, len(trustedHeaders)+1)
	for _, h := range trustedHeaders {
		candidates = append(candidates, strings.TrimSpace(r.Header.Get(h)))
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, strings.TrimSpace(first))
	}
	for _, ip := range candidates {
		if ip == "" {
			continue
		}
		seen[ip] = true
		if primary == "" {
			primary = ip
		}
	}
	if primary == "" {
		primary = remote
	}

	ips := make([]string, 0, len(seen))
	for ip := range seen {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return Info{Primary: primary, RateLimitKey: strings.Join(ips, "|")}
}

// hostOnly strips an optional port from addr.
func hostOnly(addr string) string {
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
