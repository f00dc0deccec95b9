package aggregate

import (
	"strings"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

// MaxCategoryDepth caps how deep FilterByCategory reads into a
// variable's schema reconstruction.
const MaxCategoryDepth = 2

// SelectOrganisations narrows a snapshot to the named organisations.
//
// An empty selection means no filtering.
func SelectOrganisations(s descriptives.Snapshot, names []string) descriptives.Snapshot {
	if len(names) == 0 {
		return s
	}
	selected := descriptives.Snapshot{}
	for _, name := range names {
		if org, ok := s[name]; ok {
			selected[name] = org
		}
	}
	return selected
}

// FilterByPrefix narrows the summary tables of every organisation to
// the variables starting with one of the given name prefixes.
//
// An empty selection means no filtering.
func FilterByPrefix(s descriptives.Snapshot, prefixes []string) descriptives.Snapshot {
	if len(s) == 0 || len(prefixes) == 0 {
		return s
	}

	filtered := descriptives.Snapshot{}
	for name, org := range s {
		org.Categorical = filterFrame(org.Categorical, prefixes)
		org.Numerical = filterFrame(org.Numerical, prefixes)
		filtered[name] = org
	}
	return filtered
}

// FilterByCategory narrows the summary tables of every organisation to
// the variables belonging to one of the given schema categories.
//
// An empty selection means no filtering. A selection matching no
// schema variable also means no filtering, so an unknown category
// does not blank the dashboard.
func FilterByCategory(s descriptives.Snapshot, categories []string, sch schema.Schema, maxDepth int) descriptives.Snapshot {
	if len(s) == 0 || len(categories) == 0 {
		return s
	}

	wanted := map[string]bool{}
	for _, category := range categories {
		wanted[schema.NormalizeCategory(category)] = true
	}

	selected := map[string]bool{}
	for _, variable := range sch.VariableNames() {
		for _, category := range sch.CategoryOf(variable, maxDepth) {
			if wanted[category] {
				selected[variable] = true
				break
			}
		}
	}
	if len(selected) == 0 {
		return s
	}

	filtered := descriptives.Snapshot{}
	for name, org := range s {
		org.Categorical = selectVariables(org.Categorical, selected)
		org.Numerical = selectVariables(org.Numerical, selected)
		filtered[name] = org
	}
	return filtered
}

func selectVariables(f descriptives.Frame, variables map[string]bool) descriptives.Frame {
	return f.FilterRows(func(row int) bool {
		return variables[f.String("variable", row)]
	})
}

func filterFrame(f descriptives.Frame, prefixes []string) descriptives.Frame {
	return f.FilterRows(func(row int) bool {
		variable := f.String("variable", row)
		for _, prefix := range prefixes {
			if strings.HasPrefix(variable, prefix) {
				return true
			}
		}
		return false
	})
}
