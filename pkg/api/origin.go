package api

import (
	"net/http"
	"net/url"
	"strings"
)

// originChecker guards the peer events websocket, which CORS does not cover.
// Entries are full origins as used for CORS (http://localhost:51819), bare
// hosts (localhost:51819) or "*".
type originChecker struct {
	allowAll bool
	origins  map[string]struct{}
}

// newOriginChecker uses the events origins when configured and the CORS
// origins otherwise.
func newOriginChecker(eventsAllowedOrigins []string, corsAllowedOrigins []string) *originChecker {
	allowed := eventsAllowedOrigins
	if len(allowed) == 0 {
		allowed = corsAllowedOrigins
	}

	c := &originChecker{
		origins: make(map[string]struct{}, len(allowed)),
	}
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		switch origin {
		case "":
			continue
		case "*":
			c.allowAll = true
		default:
			c.origins[origin] = struct{}{}
		}
	}
	return c
}

// Check accepts requests without an Origin header (non browser clients),
// same host requests and the configured origins.
func (c *originChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if c.allowAll || strings.EqualFold(u.Host, r.Host) {
		return true
	}

	if _, ok := c.origins[strings.ToLower(u.Scheme+"://"+u.Host)]; ok {
		return true
	}
	_, ok := c.origins[strings.ToLower(u.Host)]
	return ok
}
