package retry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Backoff describes the pause between attempts: Initial before the first retry,
// multiplied by Multiplier for each further retry and capped at Max.
type Backoff struct {
	Initial    time.Duration `mapstructure:"initial" validate:"gte=0"`
	Multiplier float64       `mapstructure:"multiplier" validate:"gte=1"`
	Max        time.Duration `mapstructure:"max" validate:"gte=0"`
}

// Policy bounds the attempts made for one logical call.
type Policy struct {
	MaxAttempts int     `mapstructure:"max-attempts" validate:"gte=1"`
	Backoff     Backoff `mapstructure:"backoff"`
}

// DefaultPolicy is used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff: Backoff{
			Initial:    time.Second,
			Multiplier: 2,
			Max:        10 * time.Second,
		},
	}
}

// Validate reports the first invalid setting.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Backoff.Initial < 0 || p.Backoff.Max < 0 {
		return errors.New("backoff durations must not be negative")
	}
	if p.Backoff.Multiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got %v", p.Backoff.Multiplier)
	}
	if p.Backoff.Max > 0 && p.Backoff.Max < p.Backoff.Initial {
		return fmt.Errorf("backoff max %s is below initial %s", p.Backoff.Max, p.Backoff.Initial)
	}
	return nil
}

// Delay returns the pause before retry number n (1-based).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Initial <= 0 {
		return 0
	}

	delay := float64(b.Initial) * math.Pow(b.Multiplier, float64(n-1))
	if b.Max > 0 && delay > float64(b.Max) {
		return b.Max
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
