package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff maps a 1-based attempt number to the delay before that retry.
// A negative delay makes the failure terminal.
type Backoff func(attempt int) time.Duration

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// BackoffConfig configures NewBackoff.
type BackoffConfig struct {
	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the delay, before jitter.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the growth factor for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random delay.
	Jitter bool

	// MaxAttempts makes every attempt after it terminal. Zero means no limit.
	MaxAttempts int
}

// NewBackoff builds a Backoff from config.
func NewBackoff(config BackoffConfig) Backoff {
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}

	return func(attempt int) time.Duration {
		if config.MaxAttempts > 0 && attempt > config.MaxAttempts {
			return Fatal()
		}
		if attempt < 1 {
			attempt = 1
		}

		var delay time.Duration
		switch config.Strategy {
		case BackoffConstant:
			delay = config.InitialDelay
		case BackoffLinear:
			delay = config.InitialDelay * time.Duration(attempt)
		default:
			factor := math.Pow(config.Multiplier, float64(attempt-1))
			scaled := float64(config.InitialDelay) * factor
			if scaled > float64(config.MaxDelay) || math.IsInf(scaled, 0) {
				scaled = float64(config.MaxDelay)
			}
			delay = time.Duration(scaled)
		}

		if delay > config.MaxDelay || delay < 0 {
			delay = config.MaxDelay
		}

		if config.Jitter && delay >= 4 {
			// #nosec G404 -- jitter is non-cryptographic timing variance.
			delay += time.Duration(rand.Int64N(int64(delay / 4)))
		}
		return delay
	}
}

// ConstantBackoff waits d before every retry.
func ConstantBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// LinearBackoff waits step times the attempt number.
func LinearBackoff(step time.Duration) Backoff {
	return NewBackoff(BackoffConfig{
		InitialDelay: step,
		MaxDelay:     time.Duration(math.MaxInt64),
		Strategy:     BackoffLinear,
	})
}

// ExponentialBackoff is NewBackoff with the exponential strategy.
func ExponentialBackoff(config BackoffConfig) Backoff {
	config.Strategy = BackoffExponential
	return NewBackoff(config)
}

// Fatal returns the delay that tells a fallback operator to stop recovering.
func Fatal() time.Duration {
	return -1
}
