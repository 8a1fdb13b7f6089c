package query

import (
	"context"
	"sync/atomic"
)

// Mutation wraps a write with a pending flag and success/error hooks.
// Callers read Pending to disable the triggering action while a request is
// outstanding.
type Mutation[In, Out any] struct {
	Fn        func(ctx context.Context, in In) (Out, error)
	OnSuccess func(out Out, in In)
	OnError   func(err error, in In)

	pending atomic.Int32
}

// Pending reports whether a call is in flight
func (m *Mutation[In, Out]) Pending() bool {
	return m.pending.Load() > 0
}

// Mutate runs Fn and then the matching hook. The error is returned as well
// so callers that need it (CLI exit codes) can use it.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	out, err := m.Fn(ctx, in)
	if err != nil {
		if m.OnError != nil {
			m.OnError(err, in)
		}
		return out, err
	}
	if m.OnSuccess != nil {
		m.OnSuccess(out, in)
	}
	return out, nil
}
