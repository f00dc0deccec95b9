package main

import (
	"context"
	"log"
	"time"

	"github.com/strongaya/fdm-portal/pkg/configs/dashboard"
	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/fetch"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/hook"
	"github.com/strongaya/fdm-portal/pkg/loop"
	"github.com/strongaya/fdm-portal/pkg/loop/recurring"
	"github.com/strongaya/fdm-portal/pkg/schema"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s",
				counter, time.Since(timestamp), next,
			)
		}()

		ret, next = task(ctx, t)
		return
	}
}

// withHook fires h around each cycle. A failing hook skips or flags
// the cycle but never carries more weight than the cycle itself.
func withHook[T any](logger *log.Logger, h hook.Hook[T], task recurring.Task[T]) recurring.Task[T] {
	return func(ctx context.Context, t T) (T, bool, error) {
		if err := h.Before(t); err != nil {
			logger.Printf("before-fetch hook failed, skipping this cycle: %v", err)
			return t, false, nil
		}
		new, ok, err := task(ctx, t)
		if err == nil {
			if aerr := h.After(new); aerr != nil {
				logger.Printf("after-fetch hook failed: %v", aerr)
			}
		}
		return new, ok, err
	}
}

func buildHook(conf dashboard.WebHook) hook.Hook[descriptives.Snapshot] {
	if len(conf.Before) == 0 && len(conf.After) == 0 {
		return hook.None[descriptives.Snapshot]{}
	}
	return hook.Web[descriptives.Snapshot]{
		BeforeURL: conf.Before,
		AfterURL:  conf.After,
	}
}

// StartFetchLoop runs the periodic retrieval until ctx is cancelled.
func StartFetchLoop(
	ctx context.Context,
	logger *log.Logger,
	retriever vantage6.Retriever,
	sch schema.Schema,
	store history.Store,
	conf dashboard.Config,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[fetch loop] "))
	policy := recurring.Fixed(time.Duration(conf.FetchInterval))
	l.Printf(`start loop /w policy "%s"`, policy.String())

	_, err := loop.Start(
		ctx, descriptives.Snapshot{},
		monitor(
			l,
			withHook(
				l,
				buildHook(conf.Hooks.Fetch),
				fetch.Task(retriever, sch, store, l),
			).Applied(policy),
		),
	)
	return err
}
