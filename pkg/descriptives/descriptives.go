// Package descriptives models the aggregated summaries the portal
// periodically retrieves from the network: per-organisation sample
// sizes, class counts, and categorical/numerical summary tables.
package descriptives

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Count is an integer which may be spelled as a JSON number or as a
// numeric string. Nodes are not consistent about which they send.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %s: %w", string(b), err)
	}
	*c = Count(n)
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}

// ClassCount is one ontology class observed at a node, with how many
// records carry it. SubClass is set for categorical values, and is
// empty (or repeats MainClass) for the variable itself.
type ClassCount struct {
	MainClass      string `json:"main_class"`
	MainClassCount Count  `json:"main_class_count"`
	SubClass       string `json:"sub_class"`
	SubClassCount  Count  `json:"sub_class_count"`
}

// CollaborationEntry is one organisation's record in the
// collaboration-descriptives result.
type CollaborationEntry struct {
	Organisation string       `json:"organisation"`
	Country      string       `json:"country"`
	SampleSize   Count        `json:"sample_size"`
	VariableInfo []ClassCount `json:"variable_info"`
}

// StatisticsResult is the descriptive-statistics result: one partial
// summary per organisation, to be merged with the collaboration
// descriptives by organisation name.
type StatisticsResult struct {
	PartialResults []PartialStatistics `json:"partial_results"`
}

// PartialStatistics is one organisation's summary tables.
type PartialStatistics struct {
	OrganisationName  string   `json:"organisation_name"`
	Categorical       Frame    `json:"categorical"`
	Numerical         Frame    `json:"numerical"`
	ExcludedVariables []string `json:"excluded_variables"`
}

// Organisation is the merged view of one organisation.
type Organisation struct {
	Country           string       `json:"country"`
	SampleSize        Count        `json:"sample_size"`
	VariableInfo      []ClassCount `json:"variable_info"`
	Categorical       Frame        `json:"categorical"`
	Numerical         Frame        `json:"numerical"`
	ExcludedVariables []string     `json:"excluded_variables,omitempty"`
}

// Snapshot is what one fetch cycle yielded, keyed by organisation name.
type Snapshot map[string]Organisation

// Merge joins the collaboration descriptives with the per-organisation
// statistics, matching on organisation name.
//
// Organisations with no matching statistics keep empty summary tables.
// Statistics with no matching organisation are dropped.
func Merge(entries []CollaborationEntry, stats *StatisticsResult) Snapshot {
	byName := map[string]PartialStatistics{}
	if stats != nil {
		for _, partial := range stats.PartialResults {
			byName[partial.OrganisationName] = partial
		}
	}

	snapshot := Snapshot{}
	for _, entry := range entries {
		org := Organisation{
			Country:      entry.Country,
			SampleSize:   entry.SampleSize,
			VariableInfo: entry.VariableInfo,
		}
		if partial, ok := byName[entry.Organisation]; ok {
			org.Categorical = partial.Categorical
			org.Numerical = partial.Numerical
			org.ExcludedVariables = partial.ExcludedVariables
		}
		snapshot[entry.Organisation] = org
	}
	return snapshot
}

// OrganisationNames lists the snapshot's organisations, sorted.
func (s Snapshot) OrganisationNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
