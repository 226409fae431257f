// Package poller runs cancellable, timer driven loops.
//
// A Task returns its new state and a Next telling the loop whether to stop
// or how long to sleep before the following run. Cancelling the context
// stops the loop at the next suspension point.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MinInterval is the shortest sleep the Poll helper accepts between checks.
const MinInterval = 500 * time.Millisecond

type Next struct {
	err      error
	quit     bool
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}
	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// Continue runs the task again after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break stops the loop. A nil err means a normal finish.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

type Task[T any] func(context.Context, T) (T, Next)

// Start calls task until it breaks or ctx is done. The last value produced
// by task is always returned, together with the break error or ctx.Err().
func Start[T any](ctx context.Context, init T, task Task[T]) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		v, n := task(ctx, value)
		value = v
		if n.err != nil {
			return value, n.err
		}
		if n.quit {
			return value, nil
		}

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutting down wins over a timer that fired at the same time
			if !timer.Stop() {
				<-timer.C
			}
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a fetch error that Poll must not retry.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Options for Poll.
type Options struct {
	// Interval between successful checks, clamped to MinInterval.
	Interval time.Duration
	// RetryDelay after a failed check. Never shorter than Interval.
	RetryDelay time.Duration
	// MaxConsecutiveErrors stops the loop with the last error. Zero keeps retrying until ctx is done.
	MaxConsecutiveErrors int
	// AttemptTimeout bounds a single check. Zero means no extra bound.
	AttemptTimeout time.Duration
}

func (o Options) normalized() Options {
	if o.Interval < MinInterval {
		o.Interval = MinInterval
	}
	if o.RetryDelay < o.Interval {
		o.RetryDelay = o.Interval
	}
	return o
}

// Poll repeatedly fetches a value until done reports a terminal value.
// onUpdate, if set, sees every successfully fetched value in order.
func Poll[T any](ctx context.Context, opts Options, fetch func(context.Context) (T, error), done func(T) bool, onUpdate func(T)) (T, error) {
	opts = opts.normalized()

	type state struct {
		last   T
		errors int
	}

	st, err := Start(ctx, state{}, func(ctx context.Context, st state) (state, Next) {
		attemptCtx := ctx
		if opts.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, opts.AttemptTimeout)
			defer cancel()
		}

		v, err := fetch(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				return st, Break(ctx.Err())
			}
			var perm *permanentError
			if errors.As(err, &perm) {
				return st, Break(perm.err)
			}
			st.errors++
			if opts.MaxConsecutiveErrors > 0 && st.errors >= opts.MaxConsecutiveErrors {
				return st, Break(err)
			}
			return st, Continue(opts.RetryDelay)
		}

		st.last = v
		st.errors = 0
		if onUpdate != nil {
			onUpdate(v)
		}
		if done(v) {
			return st, Break(nil)
		}
		return st, Continue(opts.Interval)
	})
	return st.last, err
}
