package socket

import (
	"math"
	"time"
)

// Close codes after which the channel reconnects. Every other code is final.
var transient = map[int]bool{
	1006: true, // abnormal closure, also reported for failed dials
	1012: true, // service restart
	1013: true, // try again later
}

// Transient reports whether a close with code should be followed by a reconnect.
func Transient(code int) bool {
	return transient[code]
}

// Backoff computes randomized exponential reconnect delays.
type Backoff struct {
	Base time.Duration
	// Cap bounds the exponent, not the delay.
	Cap int
}

// DefaultBackoff waits up to 1s, 2s, 4s ... 64s.
var DefaultBackoff = Backoff{Base: time.Second, Cap: 6}

// MaxCap is the largest exponent cap Normalize keeps.
const MaxCap = 30

// Normalize replaces a non-positive Base with DefaultBackoff's and clamps Cap
// to [0, MaxCap]. The zero Backoff becomes DefaultBackoff.
func (b Backoff) Normalize() Backoff {
	if b == (Backoff{}) {
		return DefaultBackoff
	}
	if b.Base <= 0 {
		b.Base = DefaultBackoff.Base
	}
	b.Cap = min(max(b.Cap, 0), MaxCap)
	return b
}

// Upper is the largest delay for the given retry count: Base * 2^min(retry, Cap).
// It saturates instead of overflowing.
func (b Backoff) Upper(retry int) time.Duration {
	b = b.Normalize()
	exp := min(max(retry, 0), b.Cap)
	if b.Base > time.Duration(math.MaxInt64>>exp) {
		return time.Duration(math.MaxInt64)
	}
	return b.Base * time.Duration(1<<exp)
}

// Delay scales Upper(retry) by u, which is expected in [0, 1).
func (b Backoff) Delay(retry int, u float64) time.Duration {
	u = min(max(u, 0), 1)
	d := u * float64(b.Upper(retry))
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
