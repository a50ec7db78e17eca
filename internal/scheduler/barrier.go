package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is the barrier's polling cadence when none is
// configured. The scheduler exposes no event stream, so waiting is
// cooperative polling.
const DefaultPollInterval = 30 * time.Second

// Barrier blocks until every job in a set reaches a terminal state. It
// never partially releases: even after a job fails, the barrier keeps
// waiting on the rest so the caller gets a complete failure report.
type Barrier struct {
	client   Client
	interval time.Duration
	logger   *slog.Logger
}

// BarrierOption is a functional option for configuring a Barrier.
type BarrierOption func(*Barrier)

// WithPollInterval sets the polling cadence.
func WithPollInterval(d time.Duration) BarrierOption {
	return func(b *Barrier) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithBarrierLogger configures the barrier to use the specified logger.
func WithBarrierLogger(logger *slog.Logger) BarrierOption {
	return func(b *Barrier) {
		b.logger = logger
	}
}

// NewBarrier creates a Barrier polling the given scheduler client.
func NewBarrier(client Client, opts ...BarrierOption) *Barrier {
	b := &Barrier{
		client:   client,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WaitOn blocks until every handle reaches a terminal state and returns
// the terminal state of each. It returns an error only if polling itself
// fails or the context is cancelled; job failures are reported through
// the returned states, not as an error, so the caller can assemble a
// complete per-job failure report.
func (b *Barrier) WaitOn(ctx context.Context, handles []JobHandle) (map[JobHandle]JobState, error) {
	states := make(map[JobHandle]JobState, len(handles))

	for {
		remaining := 0
		for _, h := range handles {
			if s, ok := states[h]; ok && s.IsTerminal() {
				continue
			}

			state, err := b.client.Poll(ctx, h)
			if err != nil {
				return nil, err
			}
			states[h] = state

			if state.IsTerminal() {
				b.logger.Debug("job reached terminal state", "handle", h, "state", state)
				continue
			}
			remaining++
		}

		if remaining == 0 {
			return states, nil
		}

		b.logger.Debug("waiting on outstanding jobs", "remaining", remaining, "total", len(handles))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.interval):
		}
	}
}
