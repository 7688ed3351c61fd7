package domain

import (
	"math"
	"time"
)

// RateLimit is a fixed-window policy
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimitInfo is the outcome of one limiter check
type RateLimitInfo struct {
	Key       string    `json:"-"`
	Limit     int       `json:"limit"`
	Count     int64     `json:"count"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
	Allowed   bool      `json:"allowed"`
}

// RetryAfter returns the whole seconds until the window resets, at least 1
func (i *RateLimitInfo) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(i.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
