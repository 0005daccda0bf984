package certifier

import (
	mrand "math/rand"
	"time"

	"github.com/canopus-network/canopus/libs/log"
)

// Option sets a parameter for the certifier.
type Option func(*Certifier)

// Logger option can be used to set a logger for the certifier.
func Logger(l log.Logger) Option {
	return func(c *Certifier) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink. Default: NopMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Certifier) {
		c.metrics = m
	}
}

// RPCTimeout sets the per-request timeout applied to every individual
// WaitForEffects call in both phases. Default: 2s.
func RPCTimeout(d time.Duration) Option {
	return func(c *Certifier) {
		c.rpcTimeout = d
	}
}

// MaxFetchAttempts sets the attempt budget of a single full-effects fetch
// pass. Default: 10.
func MaxFetchAttempts(n int) Option {
	return func(c *Certifier) {
		c.maxFetchAttempts = n
	}
}

// AckRetryBackoff sets the bounds of the randomized sleep between retries of
// a per-validator acknowledgment request. Default: 1s to 2s.
func AckRetryBackoff(min, max time.Duration) Option {
	return func(c *Certifier) {
		c.ackBackoffMin = min
		c.ackBackoffMax = max
	}
}

// PRNG sets the random source used for full-effects target selection. It
// exists so tests can make target picks deterministic; certifications
// sharing an injected source must not run concurrently. Default: a fresh
// OS-seeded source per certification.
func PRNG(r *mrand.Rand) Option {
	return func(c *Certifier) {
		c.rng = r
	}
}

// WeightedTargetSelection makes the full-effects fetcher pick validators
// with probability proportional to stake instead of uniformly. Higher-stake
// validators tend to be better provisioned, so this shifts load toward
// validators more likely to answer quickly.
func WeightedTargetSelection() Option {
	return func(c *Certifier) {
		c.weightedSelection = true
	}
}
