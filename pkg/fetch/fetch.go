// Package fetch is the portal's periodic retrieval cycle: submit the
// two algorithm tasks, merge their results into a snapshot and record
// it in the history.
package fetch

import (
	"context"
	"log"
	"time"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/loop/recurring"
	"github.com/strongaya/fdm-portal/pkg/schema"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

// VariablesToDescribe derives the statistics algorithm's input from
// the schema: variables with a value mapping are categorical, the rest
// numerical.
func VariablesToDescribe(sch schema.Schema) map[string]vantage6.VariableSpec {
	variables := map[string]vantage6.VariableSpec{}
	for name, info := range sch.VariableInfo {
		datatype := "numerical"
		if info.ValueMapping != nil {
			datatype = "categorical"
		}
		variables[name] = vantage6.VariableSpec{Datatype: datatype}
	}
	return variables
}

// Task builds the recurring fetch cycle.
//
// A cycle never breaks the loop: when the network cannot be reached,
// a placeholder snapshot is recorded so the dashboard shows that the
// data is stale rather than nothing at all. Only a failure to record
// the snapshot is reported as an error.
func Task(
	r vantage6.Retriever,
	sch schema.Schema,
	store history.Store,
	logger *log.Logger,
) recurring.Task[descriptives.Snapshot] {
	variables := VariablesToDescribe(sch)

	return func(ctx context.Context, _ descriptives.Snapshot) (descriptives.Snapshot, bool, error) {
		entries, err := r.RetrieveCollaborationDescriptives(ctx)
		if err != nil {
			logger.Printf(
				"failed to retrieve the collaboration descriptives, recording a placeholder: %v", err,
			)
			entries = vantage6.PlaceholderEntries()
		}

		var stats *descriptives.StatisticsResult
		if err == nil {
			stats, err = r.RetrieveDescriptiveStatistics(ctx, variables)
			if err != nil {
				logger.Printf("failed to retrieve the descriptive statistics: %v", err)
				stats = nil
			}
		}

		snapshot := descriptives.Merge(entries, stats)
		if err := store.Put(ctx, time.Now(), snapshot); err != nil {
			logger.Printf("failed to record the snapshot: %v", err)
			return snapshot, false, err
		}
		logger.Printf("recorded a snapshot of %d organisations", len(snapshot))
		return snapshot, true, nil
	}
}
