package loop

import (
	"context"
	"fmt"
	"time"
)

type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop after interval.
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

// Continue loop.
//
// args:
//
// - interval: sleep before starting the next cycle.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break loop.
//
// args:
//
// - err: when breaking the loop because of an error, set a non-nil value.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

// Task receives (context, last value) and returns (new value, Continue() or Break()).
type Task[T any] func(context.Context, T) (T, Next)

// Start runs task in a loop.
//
// The task is called as task(ctx, init) the first time. While it returns
// Continue(interval), it is called again with its own last return value
// after the interval. Break(err) ends the loop. The zero value (Next{})
// equals Continue(0): "go next ASAP".
//
// # Args
//
// - ctx: context. When it is Done, the loop breaks with ctx.Err().
//
// - init: the value passed to the first call of task.
//
// - task
//
// - options: options for the loop.
//
// # Returns
//
// - T: the value task returned last.
// This value is always returned, whether or not error is non-nil.
//
// - error: the error in Break(error), or ctx.Err() on cancellation.
func Start[T any](ctx context.Context, init T, task Task[T], options ...Option) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		lc := &loopConfig{ctx: ctx}
		for _, opt := range options {
			lc = opt(lc)
		}

		v, n := func() (T, Next) {
			ctx := lc.ctx
			if lc.deferred != nil {
				defer lc.deferred()
			}
			return task(ctx, value)
		}()

		if n.err != nil {
			return v, n.err
		}
		if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			// shutting down has priority. it should come first, checking the timer later.
			if !timer.Stop() {
				<-timer.C // drain. see: time.Timer.Stop's document
			}
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

type loopConfig struct {
	ctx      context.Context
	deferred func()
}

type Option func(*loopConfig) *loopConfig

// WithTimeout sets a timeout per cycle.
//
// The timeout is set on the context.Context passed to the task.
func WithTimeout(d time.Duration) Option {
	return func(lc *loopConfig) *loopConfig {
		ctx, cancel := context.WithTimeout(lc.ctx, d)
		lc.ctx = ctx
		lc.deferred = cancel
		return lc
	}
}
