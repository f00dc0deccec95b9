package vantage6

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
)

// the algorithm images the portal submits.
const (
	CollaborationDescriptivesImage = "ghcr.io/strongaya/v6-triplestore-collaboration-descriptives:v1.0.0"
	DescriptiveStatisticsImage     = "ghcr.io/strongaya/v6-descriptive-statistics:v1.0.0"
)

// VariableSpec tells the statistics algorithm how to treat a variable.
type VariableSpec struct {
	Datatype string `json:"datatype"`
}

// Retriever runs the portal's two algorithm tasks end to end.
// The mock subpackage provides a file-backed stand-in.
type Retriever interface {
	// RetrieveCollaborationDescriptives submits the triplestore
	// descriptives task and parses its result.
	RetrieveCollaborationDescriptives(ctx context.Context) ([]descriptives.CollaborationEntry, error)

	// RetrieveDescriptiveStatistics submits the descriptive statistics
	// task for the given variables and parses its partial results.
	RetrieveDescriptiveStatistics(ctx context.Context, variables map[string]VariableSpec) (*descriptives.StatisticsResult, error)
}

func (c *client) RetrieveCollaborationDescriptives(ctx context.Context) ([]descriptives.CollaborationEntry, error) {
	result, err := c.runTask(ctx, TaskSpec{
		Name:        "Data management descriptive info retrieval",
		Image:       CollaborationDescriptivesImage,
		Description: "Task to retrieve the triplestore descriptives in light of a data management portal.",
		Input:       map[string]any{"method": "central"},
		Databases:   []Database{{Label: "default"}},
	})
	if err != nil {
		return nil, err
	}

	entries := []descriptives.CollaborationEntry{}
	if err := json.Unmarshal([]byte(result), &entries); err != nil {
		return nil, fmt.Errorf("the collaboration descriptives result is malformed: %w", err)
	}
	return entries, nil
}

func (c *client) RetrieveDescriptiveStatistics(ctx context.Context, variables map[string]VariableSpec) (*descriptives.StatisticsResult, error) {
	result, err := c.runTask(ctx, TaskSpec{
		Name:        "Data management descriptive statistics",
		Image:       DescriptiveStatisticsImage,
		Description: "Task to retrieve the descriptive statistics in light of a data management portal.",
		Input: map[string]any{
			"method": "central",
			"kwargs": map[string]any{
				"variables_to_describe": variables,
				"return_partials":       true,
			},
		},
		Databases: []Database{{Label: "default"}},
	})
	if err != nil {
		return nil, err
	}
	return ParseStatisticsResult([]byte(result))
}

// runTask is the create, wait, collect cycle shared by the recipes.
func (c *client) runTask(ctx context.Context, spec TaskSpec) (string, error) {
	task, err := c.CreateTask(ctx, spec)
	if err != nil {
		return "", err
	}
	if _, err := c.WaitForResults(ctx, task.ID); err != nil {
		return "", err
	}
	return c.GetResults(ctx, task.ID)
}

// ParseStatisticsResult parses a descriptive statistics result.
//
// Algorithm versions differ on whether the result is the object itself
// or a single-element array holding it; both are accepted.
func ParseStatisticsResult(result []byte) (*descriptives.StatisticsResult, error) {
	stats := descriptives.StatisticsResult{}
	if err := json.Unmarshal(result, &stats); err == nil {
		return &stats, nil
	}

	wrapped := []descriptives.StatisticsResult{}
	if err := json.Unmarshal(result, &wrapped); err != nil {
		return nil, fmt.Errorf("the descriptive statistics result is malformed: %w", err)
	}
	if len(wrapped) == 0 {
		return &descriptives.StatisticsResult{}, nil
	}
	return &wrapped[0], nil
}

// PlaceholderEntries is what the dashboard shows when the network
// cannot be reached at all: a single empty organisation.
func PlaceholderEntries() []descriptives.CollaborationEntry {
	return []descriptives.CollaborationEntry{
		{
			Organisation: "Not available:",
			Country:      "Not available",
			SampleSize:   0,
			VariableInfo: []descriptives.ClassCount{},
		},
	}
}
