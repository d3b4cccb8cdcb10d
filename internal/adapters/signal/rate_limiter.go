package signal

import (
	"golang.org/x/time/rate"
)

// ConnRateLimiter throttles inbound frames of one connection. It is used only
// from that connection's read loop.
type ConnRateLimiter struct {
	lim     *rate.Limiter
	dropped int
}

func NewConnRateLimiter(perSecond float64, burst int) *ConnRateLimiter {
	if perSecond <= 0 {
		return &ConnRateLimiter{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	return &ConnRateLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (rl *ConnRateLimiter) Allow() bool {
	if rl.lim.Allow() {
		return true
	}
	rl.dropped++
	return false
}

// Dropped is the number of frames refused so far.
func (rl *ConnRateLimiter) Dropped() int { return rl.dropped }
