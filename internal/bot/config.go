package bot

import "time"

// Relay policy defaults, matching the remote service's expectations.
const (
	defaultBatchSize     = 24
	defaultRetries       = 3
	defaultRetryInterval = time.Second
	defaultBound         = 256
)

// Config carries the relay protocol knobs. The zero value selects the
// defaults; tests shrink the batch size and zero the retry interval. A
// Config is immutable once a session is built from it.
type Config struct {
	// BatchSize is the maximum number of events per batched call.
	BatchSize int
	// Retries is the number of attempts per remote call.
	Retries int
	// RetryInterval is the fixed pause between attempts. No backoff, no
	// jitter. Zero means no pause; a negative value selects the default.
	RetryInterval time.Duration
	// Bound is the modulus of the wrapping sequence id. It only needs to
	// exceed the number of unacknowledged events the remote session tracks.
	Bound int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	if c.RetryInterval < 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.Bound <= 0 {
		c.Bound = defaultBound
	}
	return c
}
