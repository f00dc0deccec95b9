// Package filewatch cancels contexts when watched files change.
package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext derives a context which is canceled as soon as one
// of the files is modified (written, created, removed or renamed).
// The daemon watches its schema file this way and restarts on changes.
//
// The cancel cause names the file and the operation. The returned stop
// function releases the watch. When the watch cannot be started, both
// the context and the stop function are nil.
func UntilModifyContext(ctx context.Context, files ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%s is modified (%s)", event.Name, event.Op.String()))
			}
		}
	}()

	for _, f := range files {
		if err := watcher.Add(f); err != nil {
			cancel(err)
			return nil, nil, err
		}
	}
	return cctx, func() { cancel(nil) }, nil
}
