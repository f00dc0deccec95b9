// Package aggregate computes the dashboard's views over a snapshot:
// headline numbers, donut charts, per-variable bar charts and the
// FAIR data availability table.
//
// Summary tables mark missing records with the value "nan" and
// implausible records with "outliers"; the quality domains below are
// derived from those two markers.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
)

// Domain is a data quality domain.
type Domain string

const (
	Availability Domain = "availability"
	Completeness Domain = "completeness"
	Plausibility Domain = "plausibility"
)

// ParseDomain validates a domain name, e.g. from a query parameter.
func ParseDomain(s string) (Domain, error) {
	switch d := Domain(s); d {
	case Availability, Completeness, Plausibility:
		return d, nil
	}
	return "", fmt.Errorf("unknown domain: %s (should be one of -- availability|completeness|plausibility)", s)
}

// GroupBy is the grouping axis of a donut chart.
type GroupBy string

const (
	ByOrganisation GroupBy = "organisation"
	ByCountry      GroupBy = "country"
)

// ParseGroupBy validates a grouping name, e.g. from a query parameter.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByOrganisation, ByCountry:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping: %s (should be one of -- organisation|country)", s)
}

// Summary is the dashboard's headline numbers,
// all taken from the latest snapshot.
type Summary struct {
	SampleSize    int `json:"sampleSize"`
	Organisations int `json:"organisations"`
	Countries     int `json:"countries"`
}

// Summarise computes the headline numbers of a snapshot.
func Summarise(s descriptives.Snapshot) Summary {
	countries := map[string]bool{}
	sampleSize := 0
	for _, org := range s {
		countries[org.Country] = true
		sampleSize += int(org.SampleSize)
	}
	return Summary{
		SampleSize:    sampleSize,
		Organisations: len(s),
		Countries:     len(countries),
	}
}

// counts of one organisation's records, split by quality.
type qualityCount struct {
	good float64 // records counted for the domain
	bad  float64 // records against it (missing or implausible)
}

// ratio of good records, 0 when the organisation reported nothing.
func (qc qualityCount) ratio() float64 {
	total := qc.good + qc.bad
	if total == 0 {
		return 0
	}
	return qc.good / total
}

// completenessOf counts one organisation's complete and missing records.
func completenessOf(org descriptives.Organisation) qualityCount {
	cat, num := org.Categorical, org.Numerical

	qc := qualityCount{}
	for row := 0; row < cat.Len(); row++ {
		if cat.String("value", row) == "nan" {
			qc.bad += cat.Number("count", row)
		} else {
			qc.good += cat.Number("count", row)
		}
	}
	for row := 0; row < num.Len(); row++ {
		switch num.String("statistic", row) {
		case "count":
			qc.good += num.Number("value", row)
		case "nan":
			qc.bad += num.Number("value", row)
		}
	}
	return qc
}

// plausibilityOf counts one organisation's plausible and implausible records.
func plausibilityOf(org descriptives.Organisation) qualityCount {
	cat, num := org.Categorical, org.Numerical

	total, implausible := 0.0, 0.0
	for row := 0; row < cat.Len(); row++ {
		total += cat.Number("count", row)
		if cat.String("value", row) == "outliers" {
			implausible += cat.Number("count", row)
		}
	}
	for row := 0; row < num.Len(); row++ {
		switch num.String("statistic", row) {
		case "count":
			total += num.Number("value", row)
		case "outliers":
			implausible += num.Number("value", row)
		}
	}
	return qualityCount{good: total - implausible, bad: implausible}
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
