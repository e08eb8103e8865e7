package cache

import (
	"net/url"
	"strings"
	"time"
)

// Rule assigns a TTL to every endpoint starting with Prefix.
type Rule struct {
	Prefix string
	TTL    time.Duration
}

// Policy is an ordered rule table. The first matching rule wins.
type Policy []Rule

// DefaultPolicy caches playback state briefly and the playlist listing for a day.
var DefaultPolicy = Policy{
	{Prefix: "me/player/currently-playing", TTL: 60 * time.Second},
	{Prefix: "me/player/recently-played", TTL: 300 * time.Second},
	{Prefix: "me/playlists", TTL: 24 * time.Hour},
}

// TTL returns the cache lifetime for endpoint. A zero duration means the endpoint bypasses the cache.
func (p Policy) TTL(endpoint string) time.Duration {
	endpoint = strings.TrimPrefix(endpoint, "/")
	for _, rule := range p {
		if strings.HasPrefix(endpoint, rule.Prefix) {
			return rule.TTL
		}
	}
	return 0
}

// RequestKey derives a stable cache key for an endpoint, normalizing query parameter order.
func RequestKey(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	path, rawQuery, found := strings.Cut(endpoint, "?")
	if !found || rawQuery == "" {
		return "api:" + path
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "api:" + endpoint
	}
	// Encode sorts by key.
	return "api:" + path + "?" + query.Encode()
}
