package aggregate

import (
	"fmt"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

// minBarFraction keeps a non-zero bar segment visible.
const minBarFraction = 0.01

// Bars is the data of a per-variable stacked bar chart
// for the completeness or plausibility domain.
type Bars struct {
	Domain     Domain   `json:"domain"`
	YAxisTitle string   `json:"yAxisTitle"`
	GoodName   string   `json:"goodName"`
	BadName    string   `json:"badName"`
	Rows       []BarRow `json:"rows"`
}

// BarRow is one variable's stacked bar.
//
// GoodFraction and BadFraction are the two segment heights. A non-zero
// fraction is floored at 1% so thin segments stay visible, unless some
// variable's segment is exactly zero.
type BarRow struct {
	Variable        string     `json:"variable"`
	DisplayName     string     `json:"displayName"`
	TotalGood       float64    `json:"totalGood"`
	TotalBad        float64    `json:"totalBad"`
	GoodFraction    float64    `json:"goodFraction"`
	BadFraction     float64    `json:"badFraction"`
	PerOrganisation []OrgShare `json:"perOrganisation"`
}

// OrgShare is one organisation's contribution to a variable's bar.
type OrgShare struct {
	Organisation string  `json:"organisation"`
	Good         float64 `json:"good"`
	Bad          float64 `json:"bad"`
}

// VariableBars renders the per-variable quality of a snapshot as
// stacked bar chart data. Only the completeness and plausibility
// domains have such a chart.
func VariableBars(s descriptives.Snapshot, domain Domain) (Bars, error) {
	var perVariable func(descriptives.Organisation) (order []string, counts map[string]qualityCount)
	bars := Bars{Domain: domain}

	switch domain {
	case Completeness:
		bars.YAxisTitle = "Data point completeness"
		bars.GoodName = "Complete data points"
		bars.BadName = "Incomplete data points"
		perVariable = variableCompleteness
	case Plausibility:
		bars.YAxisTitle = "Data point plausibility"
		bars.GoodName = "Plausible data points"
		bars.BadName = "Implausible data points"
		perVariable = variablePlausibility
	default:
		return Bars{}, fmt.Errorf("no variable bar chart for domain: %s", domain)
	}

	organisations := s.OrganisationNames()

	variableOrder := []string{}
	totals := map[string]qualityCount{}
	shares := map[string]map[string]qualityCount{} // variable -> organisation -> counts

	for _, name := range organisations {
		order, counts := perVariable(s[name])
		for _, variable := range order {
			qc := counts[variable]
			if _, known := totals[variable]; !known {
				variableOrder = append(variableOrder, variable)
				shares[variable] = map[string]qualityCount{}
			}
			total := totals[variable]
			total.good += qc.good
			total.bad += qc.bad
			totals[variable] = total
			shares[variable][name] = qc
		}
	}

	for _, variable := range variableOrder {
		total := totals[variable]
		row := BarRow{
			Variable:     variable,
			DisplayName:  schema.DisplayName(variable),
			TotalGood:    total.good,
			TotalBad:     total.bad,
			GoodFraction: total.ratio(),
		}
		if all := total.good + total.bad; all != 0 {
			row.BadFraction = total.bad / all
		}
		for _, name := range organisations {
			if qc, ok := shares[variable][name]; ok {
				row.PerOrganisation = append(row.PerOrganisation, OrgShare{
					Organisation: name, Good: qc.good, Bad: qc.bad,
				})
			}
		}
		bars.Rows = append(bars.Rows, row)
	}

	applyMinFraction(bars.Rows, func(r *BarRow) *float64 { return &r.GoodFraction })
	applyMinFraction(bars.Rows, func(r *BarRow) *float64 { return &r.BadFraction })

	return bars, nil
}

// applyMinFraction floors every segment at minBarFraction, but only
// when no segment of that kind is exactly zero.
func applyMinFraction(rows []BarRow, segment func(*BarRow) *float64) {
	for i := range rows {
		if *segment(&rows[i]) == 0 {
			return
		}
	}
	for i := range rows {
		f := segment(&rows[i])
		if *f < minBarFraction {
			*f = minBarFraction
		}
	}
}

// variableCompleteness counts per-variable complete and missing records
// of one organisation. The order lists variables by first appearance.
func variableCompleteness(org descriptives.Organisation) ([]string, map[string]qualityCount) {
	order := []string{}
	counts := map[string]qualityCount{}

	cat := org.Categorical
	for _, variable := range cat.UniqueStrings("variable") {
		qc := qualityCount{}
		for row := 0; row < cat.Len(); row++ {
			if cat.String("variable", row) != variable {
				continue
			}
			if cat.String("value", row) == "nan" {
				qc.bad += cat.Number("count", row)
			} else {
				qc.good += cat.Number("count", row)
			}
		}
		order = append(order, variable)
		counts[variable] = qc
	}

	num := org.Numerical
	for _, variable := range num.UniqueStrings("variable") {
		qc := qualityCount{}
		for row := 0; row < num.Len(); row++ {
			if num.String("variable", row) != variable {
				continue
			}
			switch num.String("statistic", row) {
			case "count":
				qc.good += num.Number("value", row)
			case "nan":
				qc.bad += num.Number("value", row)
			}
		}
		if _, known := counts[variable]; !known {
			order = append(order, variable)
		}
		counts[variable] = qc
	}

	return order, counts
}

// variablePlausibility counts per-variable plausible and implausible
// records of one organisation.
func variablePlausibility(org descriptives.Organisation) ([]string, map[string]qualityCount) {
	order := []string{}
	counts := map[string]qualityCount{}

	cat := org.Categorical
	for _, variable := range cat.UniqueStrings("variable") {
		qc := qualityCount{}
		for row := 0; row < cat.Len(); row++ {
			if cat.String("variable", row) != variable {
				continue
			}
			if cat.String("value", row) == "outliers" {
				qc.bad += cat.Number("count", row)
			} else {
				qc.good += cat.Number("count", row)
			}
		}
		order = append(order, variable)
		counts[variable] = qc
	}

	num := org.Numerical
	for _, variable := range num.UniqueStrings("variable") {
		qc := qualityCount{}
		for row := 0; row < num.Len(); row++ {
			if num.String("variable", row) != variable {
				continue
			}
			switch num.String("statistic", row) {
			case "count":
				qc.good += num.Number("value", row)
			case "outliers":
				qc.bad += num.Number("value", row)
			}
		}
		qc.good -= qc.bad
		if _, known := counts[variable]; !known {
			order = append(order, variable)
		}
		counts[variable] = qc
	}

	return order, counts
}
