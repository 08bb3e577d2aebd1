package bot

import (
	"context"
	"time"

	"github.com/mjai-relay/mjai-relay/internal/mjai"
	"go.uber.org/zap"
)

// callWithRetry runs one remote invocation (single or batched) under the
// session's retry policy: up to cfg.Retries attempts with a fixed pause in
// between. A batch is atomic from this policy's point of view; there is no
// partial-success handling. When every attempt fails the sequence counter is
// restored to prevSeq and the last error is surfaced to the caller, which
// decides whether to abort the game or retry at a higher level.
func (s *Session) callWithRetry(ctx context.Context, prevSeq int, call func(context.Context) (mjai.Reaction, error)) (mjai.Reaction, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retries; attempt++ {
		reaction, err := call(ctx)
		if err == nil {
			return reaction, nil
		}
		lastErr = err
		s.logger.Warn("remote call failed",
			zap.Int("attempt", attempt),
			zap.Int("retries", s.cfg.Retries),
			zap.Error(err),
		)
		if attempt == s.cfg.Retries {
			break
		}
		if err := sleep(ctx, s.cfg.RetryInterval); err != nil {
			lastErr = err
			break
		}
	}
	s.seq.restore(prevSeq)
	return nil, lastErr
}

// sleep pauses for the retry interval unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
