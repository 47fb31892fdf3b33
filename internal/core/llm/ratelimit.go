package llm

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// Limiter spaces outbound model calls. A nil *Limiter never waits.
type Limiter struct {
	rl *rate.Limiter
}

// NewLimiter allows requestsPerSecond calls per second; 0 or less means unlimited.
func NewLimiter(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(math.Max(1, math.Ceil(requestsPerSecond)))
	return &Limiter{rl: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.rl == nil {
		return nil
	}
	if err := l.rl.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}
