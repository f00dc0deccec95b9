// Package mock is a file-backed stand-in for the Vantage6 network,
// used when no secrets or network configuration are provided.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/vantage6"
)

// the files a mock data directory should hold.
const (
	CollaborationDescriptivesFile = "mock_descriptives_collaboration.json"
	DescriptiveStatisticsFile     = "mock_descriptive_statistics.json"
)

// Retriever serves canned results from a directory instead of
// submitting tasks.
type Retriever struct {
	dir string
}

var _ vantage6.Retriever = &Retriever{}

func New(dir string) *Retriever {
	return &Retriever{dir: dir}
}

func (r *Retriever) RetrieveCollaborationDescriptives(_ context.Context) ([]descriptives.CollaborationEntry, error) {
	path := filepath.Join(r.dir, CollaborationDescriptivesFile)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock descriptives %s: %w", path, err)
	}

	entries := []descriptives.CollaborationEntry{}
	if err := json.Unmarshal(buf, &entries); err != nil {
		return nil, fmt.Errorf("mock descriptives %s are malformed: %w", path, err)
	}
	return entries, nil
}

func (r *Retriever) RetrieveDescriptiveStatistics(_ context.Context, _ map[string]vantage6.VariableSpec) (*descriptives.StatisticsResult, error) {
	path := filepath.Join(r.dir, DescriptiveStatisticsFile)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock statistics %s: %w", path, err)
	}
	return vantage6.ParseStatisticsResult(buf)
}
