// Package recurring adapts domain tasks into loop.Task with a restart Policy.
package recurring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strongaya/fdm-portal/pkg/loop"
)

// Task is a unit of recurring work.
//
// # Returns
//
// - T: same as the return value T of loop.Task[T]
//
// - bool: true when this task did something in this cycle. Otherwise false.
//
// - error: same as the err of loop.Break(err)
type Task[T any] func(context.Context, T) (T, bool, error)

// Applied builds a loop.Task which executes rt and asks p for what to do next.
func (rt Task[T]) Applied(p Policy) loop.Task[T] {
	return func(ctx context.Context, t T) (T, loop.Next) {
		new, ok, err := rt(ctx, t)
		return new, p.Next(ok, err)
	}
}

// Policy decides how a recurring loop behaves between cycles.
type Policy interface {
	Next(updated bool, err error) loop.Next
	String() string
}

// ParsePolicy parses a policy expression: "fixed:INTERVAL" or "once".
func ParsePolicy(s string) (Policy, error) {
	typ, param, ok := strings.Cut(s, ":")
	switch typ {
	case "fixed":
		if !ok || param == "" {
			return nil, fmt.Errorf(`fixed policy needs an interval: %s (want "fixed:INTERVAL")`, s)
		}
		interval, err := time.ParseDuration(param)
		if err != nil {
			return nil, fmt.Errorf(`failed to parse %s as "fixed:INTERVAL": %w`, s, err)
		}
		return Fixed(interval), nil
	case "once":
		if ok {
			return nil, fmt.Errorf("once policy does not take parameters: %s", s)
		}
		return Once(), nil
	}
	return nil, fmt.Errorf("unknown policy name: %s (should be one of -- fixed|once)", typ)
}

// Fixed restarts the task after a fixed interval, every time,
// whether or not the last cycle did something or failed.
//
// This is the portal's refresh behavior: resubmit at the interval,
// no backoff, and a failed fetch keeps the previous data served.
func Fixed(interval time.Duration) Policy {
	return fixed(interval)
}

type fixed time.Duration

func (f fixed) String() string {
	return fmt.Sprintf("fixed:%s", time.Duration(f).String())
}

func (f fixed) Next(updated bool, err error) loop.Next {
	return loop.Continue(time.Duration(f))
}

// Once runs the task a single time: Break with whatever the cycle produced.
func Once() Policy {
	return once
}

type oncePolicy struct{}

func (oncePolicy) String() string {
	return "once"
}

func (oncePolicy) Next(updated bool, err error) loop.Next {
	return loop.Break(err)
}

var once = oncePolicy{} // singleton

// UntilError adds a provisory clause: in case of error, Break with that error.
func UntilError(p Policy) Policy {
	return untilError{base: p}
}

type untilError struct {
	base Policy
}

func (u untilError) String() string {
	return fmt.Sprintf("%s (until error)", u.base.String())
}

func (u untilError) Next(updated bool, err error) loop.Next {
	if err != nil {
		return loop.Break(err)
	}
	return u.base.Next(updated, err)
}
