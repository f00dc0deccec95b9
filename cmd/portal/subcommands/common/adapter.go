package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	"github.com/strongaya/fdm-portal/cmd/portal/config/profiles"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(
			ctx,
			logger,
			commonFlag,
			cl,
			newpos,
		)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	client vantage6.Client,
	cl flarc.Commandline[T],
	params []any,
) error

// Client resolves the profile named by the common flags and dials a
// Vantage6 client with it.
func Client(commonFlag CommonFlags) (vantage6.Client, error) {
	store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			return nil, fmt.Errorf(
				"%w: profile store (%s) is not found. Please try `portal init` first. Ask your admin for a profile file",
				err, commonFlag.ProfileStore,
			)
		}
		return nil, fmt.Errorf(
			"%w: failed to load profile store (%s)",
			err, commonFlag.ProfileStore,
		)
	}
	prof, ok := store[commonFlag.Profile]
	if !ok {
		return nil, fmt.Errorf(
			"profile '%s' not found in the profile store (%s)",
			commonFlag.Profile, commonFlag.ProfileStore,
		)
	}

	client, err := vantage6.NewClient(prof.Vantage6())
	if err != nil {
		return nil, fmt.Errorf(
			"%w: failed to create a client. Your profile (%s in %s) can be broken.\n\nRemove it and try `portal init` again",
			err, commonFlag.Profile, commonFlag.ProfileStore,
		)
	}
	return client, nil
}

// NewTask adapts a Task into flarc, dialing the client via Client.
func NewTask[T any](task Task[T]) flarc.Task[T] {

	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		client, err := Client(commonFlag)
		if err != nil {
			return err
		}
		return task(ctx, logger, client, cl, params)
	})
}
