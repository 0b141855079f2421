package bridge

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy controls how long the bridge waits before attempting to
// reconnect to the messaging fabric after a lost connection. The original
// reference implementation's connection-lost handler was a no-op that
// only logged the event; this supplies the reconnect behavior a real
// deployment needs, reusing the exponential-backoff-with-jitter shape the
// teacher repo applies to task retries.
type BackoffPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	JitterFactor   float64
}

// DefaultBackoffPolicy returns a sensible default reconnect policy.
func DefaultBackoffPolicy() *BackoffPolicy {
	return &BackoffPolicy{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// Delay returns the backoff duration for the given zero-based reconnect
// attempt number.
func (p *BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return p.InitialBackoff
	}
	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempt))
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	if p.JitterFactor > 0 {
		jitter := backoff * p.JitterFactor * (rand.Float64()*2 - 1)
		backoff += jitter
	}
	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}
	return time.Duration(backoff)
}

// Reconnector drives repeated calls to connect until it succeeds or stop
// is closed, sleeping according to policy between attempts. It is the
// supplemented replacement for the reference implementation's
// connection-lost stub, which logged the cause and did nothing else.
type Reconnector struct {
	policy *BackoffPolicy
}

// NewReconnector constructs a Reconnector with policy, or
// DefaultBackoffPolicy if policy is nil.
func NewReconnector(policy *BackoffPolicy) *Reconnector {
	if policy == nil {
		policy = DefaultBackoffPolicy()
	}
	return &Reconnector{policy: policy}
}

// Run calls connect repeatedly, backing off between failures, until
// connect returns nil or stop is closed. It returns connect's final
// error: nil on success, otherwise the error of the last attempt made
// before stop was observed.
func (r *Reconnector) Run(stop <-chan struct{}, connect func() error) error {
	attempt := 0
	for {
		err := connect()
		if err == nil {
			return nil
		}
		select {
		case <-stop:
			return err
		case <-time.After(r.policy.Delay(attempt)):
		}
		attempt++
	}
}
