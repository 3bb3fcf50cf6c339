package ratelimit

import (
	"math"
	"time"

	"nutrition-hq/dietapi/pkg/config"
)

// Reason says which limit refused a request.
type Reason string

const (
	// ReasonRate means the request rate exceeded the token bucket.
	ReasonRate Reason = "rate"

	// ReasonInFlight means too many requests were already being served.
	ReasonInFlight Reason = "in_flight"
)

// Decision is the outcome of Limiter.Admit.
type Decision struct {
	Allowed bool
	Reason  Reason

	// RetryAfter suggests when a refused client may try again. It is zero
	// for in-flight refusals, which clear as soon as any request finishes.
	RetryAfter time.Duration
}

// Limiter admits requests against a global rate and an in-flight cap.
// Either limit may be disabled; a Limiter with both disabled admits
// everything.
type Limiter struct {
	rate     *TokenBucket
	inFlight *ConcurrentLimiter
}

// NewLimiter builds a limiter from the server limits configuration. A
// zero burst defaults to the rate rounded up, and never less than one.
func NewLimiter(cfg config.LimitsConfig) *Limiter {
	return newLimiter(cfg, time.Now)
}

func newLimiter(cfg config.LimitsConfig, now func() time.Time) *Limiter {
	l := &Limiter{}
	if cfg.RequestsPerSecond > 0 {
		burst := int64(cfg.Burst)
		if burst <= 0 {
			burst = max(int64(math.Ceil(cfg.RequestsPerSecond)), 1)
		}
		l.rate = newTokenBucket(burst, cfg.RequestsPerSecond, now)
	}
	if cfg.MaxInFlight > 0 {
		l.inFlight = NewConcurrentLimiter(cfg.MaxInFlight)
	}
	return l
}

// Enabled reports whether any limit is configured.
func (l *Limiter) Enabled() bool {
	return l.rate != nil || l.inFlight != nil
}

// Admit decides whether a request may proceed. When it is allowed the
// caller must call Release once the request finishes.
//
// The in-flight slot is taken before the rate token, so a request refused
// for concurrency does not consume rate budget.
func (l *Limiter) Admit() Decision {
	if l.inFlight != nil && !l.inFlight.Acquire() {
		return Decision{Reason: ReasonInFlight}
	}
	if l.rate != nil && !l.rate.Take(1) {
		if l.inFlight != nil {
			l.inFlight.Release()
		}
		return Decision{Reason: ReasonRate, RetryAfter: l.rate.TimeUntilAvailable(1)}
	}
	return Decision{Allowed: true}
}

// Release ends an admitted request.
func (l *Limiter) Release() {
	if l.inFlight != nil {
		l.inFlight.Release()
	}
}

// InFlight returns the number of admitted requests not yet released, or
// zero without an in-flight cap.
func (l *Limiter) InFlight() int64 {
	if l.inFlight == nil {
		return 0
	}
	return l.inFlight.Current()
}
