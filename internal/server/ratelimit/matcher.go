package ratelimit

import "strings"

// unlimited marks requests that are never rate limited.
var unlimited = &EndpointConfig{Path: "unlimited"}

// MatchEndpoint returns the rule for a request, or nil to use the default limit.
// Exact paths win over prefix rules; a rule path ending in "/" matches by prefix.
// The API health check (GET /api/) is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/api/" || path == "/api") {
		return unlimited
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
