package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/youta-t/flarc"

	"github.com/strongaya/fdm-portal/cmd/portal/subcommands/common"
	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/fetch"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/loop"
	"github.com/strongaya/fdm-portal/pkg/loop/recurring"
	"github.com/strongaya/fdm-portal/pkg/schema"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
	"github.com/strongaya/fdm-portal/pkg/vantage6/mock"
)

type Flag struct {
	Schema string `flag:"schema" metavar:"FILE" help:"path to the data schema file (.json). Required unless --mock is given."`
	Mock   string `flag:"mock" metavar:"DIR" help:"read mock result files from DIR instead of calling the server."`
	Pretty bool   `flag:"pretty" help:"indent the snapshot json."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"run one fetch cycle and print the merged snapshot as json.",
		Flag{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task()),
		flarc.WithDescription(`
Submit the collaboration-descriptives and descriptive-statistics tasks
once, wait for their results, merge them and print the snapshot to
stdout. This is the same cycle the portal daemon runs periodically.

When the network cannot be reached, the snapshot degrades to a
placeholder entry, exactly as the dashboard would show it.

To inspect the mock data instead of calling a server,

    {{ .Command }} --mock ./example_data
`),
	)
}

func Task() common.TaskWithCommonFlag[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[Flag],
		params []any,
	) error {
		flags := cl.Flags()

		var retriever vantage6.Retriever
		sch := schema.Schema{}
		if flags.Mock != "" {
			retriever = mock.New(flags.Mock)
		} else {
			if flags.Schema == "" {
				return errors.Join(
					flarc.ErrUsage, errors.New("--schema is required unless --mock is given"),
				)
			}
			client, err := common.Client(cf)
			if err != nil {
				return err
			}
			retriever = client
		}
		if flags.Schema != "" {
			s, err := schema.Load(flags.Schema)
			if err != nil {
				return err
			}
			sch = s
		}

		store := history.InMemory()
		defer store.Close()

		task := fetch.Task(retriever, sch, store, logger)
		if _, err := loop.Start(
			ctx, descriptives.Snapshot{}, task.Applied(recurring.Once()),
		); err != nil {
			return err
		}

		_, snapshot, ok, err := store.Latest(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("the fetch cycle recorded nothing")
		}

		enc := json.NewEncoder(cl.Stdout())
		if flags.Pretty {
			enc.SetIndent("", "    ")
		}
		return enc.Encode(snapshot)
	}
}
