package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reset headers carry either unix seconds or a seconds-from-now delta.
// Anything above this threshold is a unix timestamp (dates after 2001).
const unixTimestampThreshold = 1_000_000_000

// RateLimitInfo is the per-token quota state reported by the platform on
// every response. Pointer fields are nil when the header was absent or
// unparseable.
type RateLimitInfo struct {
	Limit     *int
	Remaining *int
	ResetAt   *time.Time
	ResetRaw  string
}

// Meta returns the quota state as a JSON-ready map, or nil when nothing
// was reported. Used to attach rate limit metadata to CLI output.
func (r *RateLimitInfo) Meta() map[string]any {
	if r == nil {
		return nil
	}
	meta := map[string]any{}
	if r.Limit != nil {
		meta["limit"] = *r.Limit
	}
	if r.Remaining != nil {
		meta["remaining"] = *r.Remaining
	}
	switch {
	case r.ResetAt != nil:
		meta["reset_at"] = r.ResetAt.UTC().Format(time.RFC3339)
	case r.ResetRaw != "":
		meta["reset"] = r.ResetRaw
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// clone returns a deep copy so callers cannot mutate the client's stored state.
func (r *RateLimitInfo) clone() *RateLimitInfo {
	if r == nil {
		return nil
	}
	out := &RateLimitInfo{ResetRaw: r.ResetRaw}
	if r.Limit != nil {
		v := *r.Limit
		out.Limit = &v
	}
	if r.Remaining != nil {
		v := *r.Remaining
		out.Remaining = &v
	}
	if r.ResetAt != nil {
		t := *r.ResetAt
		out.ResetAt = &t
	}
	return out
}

// LastRateLimit returns a copy of the quota state from the most recent
// response, or nil before the first request.
func (c *Client) LastRateLimit() *RateLimitInfo {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	return c.lastRateLimit.clone()
}

// SetRateLimitInfo overrides the stored quota state. Test hook.
func (c *Client) SetRateLimitInfo(info *RateLimitInfo) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	c.lastRateLimit = info
}

func (c *Client) recordRateLimit(h http.Header) {
	info := parseRateLimitInfo(h, time.Now())
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	c.lastRateLimit = info
}

// parseRateLimitInfo reads both the X-RateLimit-* convention and the
// draft-standard RateLimit-* names, preferring the X- form.
func parseRateLimitInfo(h http.Header, now time.Time) *RateLimitInfo {
	if h == nil {
		return nil
	}

	info := &RateLimitInfo{}
	if v, ok := intHeader(h, "X-RateLimit-Limit", "RateLimit-Limit"); ok {
		info.Limit = &v
	}
	if v, ok := intHeader(h, "X-RateLimit-Remaining", "RateLimit-Remaining"); ok {
		info.Remaining = &v
	}
	if raw := firstHeader(h, "X-RateLimit-Reset", "RateLimit-Reset"); raw != "" {
		info.ResetRaw = raw
		if t, ok := parseRateLimitReset(raw, now); ok {
			info.ResetAt = &t
		}
	}

	if info.Limit == nil && info.Remaining == nil && info.ResetAt == nil && info.ResetRaw == "" {
		return nil
	}
	return info
}

func intHeader(h http.Header, keys ...string) (int, bool) {
	raw := firstHeader(h, keys...)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstHeader(h http.Header, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(h.Get(key)); value != "" {
			return value
		}
	}
	return ""
}

// parseRateLimitReset accepts unix seconds, relative seconds, and HTTP dates.
func parseRateLimitReset(value string, now time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		switch {
		case secs > unixTimestampThreshold:
			return time.Unix(secs, 0).UTC(), true
		case secs >= 0:
			return now.Add(time.Duration(secs) * time.Second).UTC(), true
		default:
			return time.Time{}, false
		}
	}
	if t, err := http.ParseTime(trimmed); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
