package aggregate

import (
	"fmt"
	"strings"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

// Table is the FAIR data availability table: per schema variable (and
// per permitted value of categorical variables), how many records each
// organisation holds.
type Table struct {
	Subject       string     `json:"subject"`
	Organisations []string   `json:"organisations"`
	Rows          []TableRow `json:"rows"`
}

// TableRow is one line of the availability table.
//
// Variable rows leave Value empty; value rows leave Variable empty,
// like the table reads on screen. Counts holds the per-organisation
// record counts and Marks their ✔/✖ rendering.
type TableRow struct {
	Variable string            `json:"variable"`
	Value    string            `json:"value"`
	Total    int               `json:"total"`
	Counts   map[string]int    `json:"counts"`
	Marks    map[string]string `json:"marks"`
	Tooltip  Tooltip           `json:"tooltip"`
}

// Tooltip carries the row's hover texts, as markdown.
type Tooltip struct {
	Variable        string            `json:"variable,omitempty"`
	Value           string            `json:"value,omitempty"`
	Total           string            `json:"total"`
	PerOrganisation map[string]string `json:"perOrganisation"`
}

const (
	markFound   = "✔"
	markMissing = "✖"
)

// AvailabilityTable crosses the schema's variables with the snapshot's
// per-organisation class counts.
//
// A variable matches an organisation's records on its expanded class;
// a permitted value matches on the pair (variable class, value class).
// The "missing_or_unspecified" term is not shown, missingness has the
// completeness views.
func AvailabilityTable(sch schema.Schema, s descriptives.Snapshot, subject string) Table {
	organisations := s.OrganisationNames()
	table := Table{Subject: subject, Organisations: organisations}

	for _, variable := range sch.VariableNames() {
		info := sch.VariableInfo[variable]
		class := sch.Expand(info.Class)

		// this organisation's entries for the variable's class
		matches := map[string][]descriptives.ClassCount{}
		for _, name := range organisations {
			for _, cc := range s[name].VariableInfo {
				if cc.MainClass == class {
					matches[name] = append(matches[name], cc)
				}
			}
		}

		table.Rows = append(table.Rows, variableRow(sch, variable, class, organisations, matches, subject))

		if info.ValueMapping == nil {
			continue
		}
		for _, value := range sortedKeys(info.ValueMapping.Terms) {
			if value == "missing_or_unspecified" {
				continue
			}
			targetClass := sch.Expand(info.ValueMapping.Terms[value].TargetClass)
			table.Rows = append(table.Rows,
				valueRow(sch, variable, value, targetClass, organisations, matches, subject))
		}
	}

	return table
}

// a variable's own records are those whose sub class is empty
// or repeats the main class.
func isVariableEntry(cc descriptives.ClassCount, class string) bool {
	return cc.SubClass == "" || cc.SubClass == class
}

func variableRow(
	sch schema.Schema, variable, class string,
	organisations []string, matches map[string][]descriptives.ClassCount,
	subject string,
) TableRow {
	display := schema.DisplayName(variable)
	spaced := plainName(variable)

	row := TableRow{
		Variable: display,
		Counts:   map[string]int{},
		Marks:    map[string]string{},
		Tooltip: Tooltip{
			Variable:        fmt.Sprintf("__%s__  \nAssociated class: %s", display, sch.Compact(class)),
			PerOrganisation: map[string]string{},
		},
	}

	perOrg := []string{}
	for _, name := range organisations {
		count, found := 0, false
		for _, cc := range matches[name] {
			if isVariableEntry(cc, class) {
				count = int(cc.MainClassCount)
				found = true
				break
			}
		}
		row.Total += countAll(matches[name], func(cc descriptives.ClassCount) (int, bool) {
			return int(cc.MainClassCount), isVariableEntry(cc, class)
		})

		row.Counts[name] = count
		row.Marks[name] = mark(count)
		if found {
			perOrg = append(perOrg, fmt.Sprintf("%s: __%d__", name, count))
			row.Tooltip.PerOrganisation[name] = fmt.Sprintf(
				"__%d__ %ss in %s have information on __%s__.",
				count, subject, name, strings.ReplaceAll(variable, "_", " "),
			)
		} else {
			row.Tooltip.PerOrganisation[name] = fmt.Sprintf(
				"Data for __%s__ appears unavailable for %s.", spaced, name,
			)
		}
	}

	if 0 < len(perOrg) {
		row.Tooltip.Total = fmt.Sprintf(
			"__%s__  \nAvailable %s data per organisation  \n%s",
			display, subject, strings.Join(perOrg, "  \n"),
		)
	} else {
		row.Tooltip.Total = fmt.Sprintf(
			"No %ss with information on __%s__ appear to be available.", subject, spaced,
		)
	}
	return row
}

func valueRow(
	sch schema.Schema, variable, value, targetClass string,
	organisations []string, matches map[string][]descriptives.ClassCount,
	subject string,
) TableRow {
	variableDisplay := schema.DisplayName(variable)
	variableSpaced := plainName(variable)
	valueDisplay := schema.Title(strings.ReplaceAll(value, "_", " "))
	valueSpaced := strings.ReplaceAll(value, "_", " ")

	row := TableRow{
		Value:  valueDisplay,
		Counts: map[string]int{},
		Marks:  map[string]string{},
		Tooltip: Tooltip{
			Value: fmt.Sprintf(
				"%s - __%s__  \nAssociated class: %s",
				variableDisplay, valueDisplay, sch.Compact(targetClass),
			),
			PerOrganisation: map[string]string{},
		},
	}

	perOrg := []string{}
	for _, name := range organisations {
		count, found := 0, false
		for _, cc := range matches[name] {
			if cc.SubClass == targetClass {
				count = int(cc.SubClassCount)
				found = true
				break
			}
		}
		row.Total += countAll(matches[name], func(cc descriptives.ClassCount) (int, bool) {
			return int(cc.SubClassCount), cc.SubClass == targetClass
		})

		row.Counts[name] = count
		row.Marks[name] = mark(count)
		if found {
			perOrg = append(perOrg, fmt.Sprintf("%s: __%d__", name, count))
			row.Tooltip.PerOrganisation[name] = fmt.Sprintf(
				"__%d__ %ss in %s have __%s__ as %s.",
				count, subject, name, valueSpaced, strings.ReplaceAll(variable, "_", " "),
			)
		} else {
			row.Tooltip.PerOrganisation[name] = fmt.Sprintf(
				"No %ss that have __%s__ as %s appear available in %s.",
				subject, valueSpaced, strings.ReplaceAll(variable, "_", " "), name,
			)
		}
	}

	if 0 < len(perOrg) {
		row.Tooltip.Total = fmt.Sprintf(
			"%s - __%s__  \nAvailable %s data per organisation  \n%s",
			variableDisplay, valueDisplay, subject, strings.Join(perOrg, "  \n"),
		)
	} else {
		row.Tooltip.Total = fmt.Sprintf(
			"No %ss with __%s__ for %s appear to be available.",
			subject, valueSpaced, variableSpaced,
		)
	}
	return row
}

func countAll(ccs []descriptives.ClassCount, count func(descriptives.ClassCount) (int, bool)) int {
	total := 0
	for _, cc := range ccs {
		if n, ok := count(cc); ok {
			total += n
		}
	}
	return total
}

func mark(count int) string {
	if 0 < count {
		return markFound
	}
	return markMissing
}

// plainName spells a variable for running text:
// spaced, and uppercased when it carries an acronym.
func plainName(variable string) string {
	spaced := strings.ReplaceAll(variable, "_", " ")
	if schema.DisplayName(variable) == strings.ToUpper(spaced) {
		return strings.ToUpper(spaced)
	}
	return spaced
}
