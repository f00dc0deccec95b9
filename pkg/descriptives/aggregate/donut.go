package aggregate

import (
	"github.com/strongaya/fdm-portal/pkg/descriptives"
)

// Donut is the data of one donut chart.
//
// Values[i] belongs to Labels[i]. CustomData carries the per-slice
// relative quality percentage for the completeness and plausibility
// domains, and is nil for availability.
type Donut struct {
	Title      string    `json:"title"`
	Labels     []string  `json:"labels"`
	Values     []float64 `json:"values"`
	CustomData []float64 `json:"customData,omitempty"`
	Hover      string    `json:"hover"`
}

// DonutChart renders one quality domain of a snapshot as donut chart data,
// grouped per organisation or per country.
//
// The subject is the kind of record counted, e.g. "AYA";
// it only appears in titles and hover texts.
func DonutChart(s descriptives.Snapshot, domain Domain, by GroupBy, subject string) (Donut, error) {
	if _, err := ParseGroupBy(string(by)); err != nil {
		return Donut{}, err
	}

	switch domain {
	case Availability:
		return availabilityDonut(s, by, subject), nil
	case Completeness:
		return qualityDonut(s, by, completenessSpec(subject)), nil
	case Plausibility:
		return qualityDonut(s, by, plausibilitySpec(subject)), nil
	}
	_, err := ParseDomain(string(domain))
	return Donut{}, err
}

func availabilityDonut(s descriptives.Snapshot, by GroupBy, subject string) Donut {
	d := Donut{
		Hover: "<b>%{label}</b><br>Available " + subject + " data: <b>%{value}</b><br>" +
			"Proportion of all available " + subject + " data: <b>%{percent}</b>",
	}

	switch by {
	case ByOrganisation:
		d.Title = subject + "s per organisation"
		for _, name := range s.OrganisationNames() {
			d.Labels = append(d.Labels, name)
			d.Values = append(d.Values, float64(s[name].SampleSize))
		}
	case ByCountry:
		d.Title = subject + "s per country"
		perCountry := map[string]float64{}
		for _, org := range s {
			perCountry[org.Country] += float64(org.SampleSize)
		}
		for _, country := range sortedKeys(perCountry) {
			d.Labels = append(d.Labels, country)
			d.Values = append(d.Values, perCountry[country])
		}
	}
	return d
}

// donutSpec describes how one quality domain turns per-organisation
// counts into donut slices.
type donutSpec struct {
	count             func(descriptives.Organisation) qualityCount
	value             func(qualityCount) float64
	relative          func(qualityCount) float64
	capCountryPercent bool
	titleBy           map[GroupBy]string
	hover             string
}

func completenessSpec(subject string) donutSpec {
	return donutSpec{
		count: completenessOf,
		value: func(qc qualityCount) float64 { return qc.good },
		relative: func(qc qualityCount) float64 {
			if qc.good+qc.bad == 0 {
				return 0
			}
			return round1(qc.bad / (qc.good + qc.bad) * 100)
		},
		titleBy: map[GroupBy]string{
			ByOrganisation: "Complete " + subject + " data points per organisation",
			ByCountry:      "Complete " + subject + " data points per country",
		},
		hover: "<b>%{label}</b><br>Relative incomplete data points: <b>%{customdata}%</b><br><br>" +
			"Complete " + subject + " data points: <b>%{value}</b><br>" +
			"Proportion of all complete " + subject + " data points: <b>%{percent}</b>",
	}
}

func plausibilitySpec(subject string) donutSpec {
	return donutSpec{
		count: plausibilityOf,
		value: func(qc qualityCount) float64 { return qc.good },
		relative: func(qc qualityCount) float64 {
			return round1(qc.ratio() * 100)
		},
		capCountryPercent: true,
		titleBy: map[GroupBy]string{
			ByOrganisation: "Plausible " + subject + " data points per organisation",
			ByCountry:      "Plausible " + subject + " data points per country",
		},
		hover: "<b>%{label}</b><br>Relative plausible data points: <b>%{customdata}%</b><br><br>" +
			"Plausible " + subject + " data points: <b>%{value}</b><br>" +
			"Proportion of all plausible " + subject + " data points: <b>%{percent}</b>",
	}
}

func qualityDonut(s descriptives.Snapshot, by GroupBy, spec donutSpec) Donut {
	d := Donut{Title: spec.titleBy[by], Hover: spec.hover}

	switch by {
	case ByOrganisation:
		for _, name := range s.OrganisationNames() {
			qc := spec.count(s[name])
			d.Labels = append(d.Labels, name)
			d.Values = append(d.Values, spec.value(qc))
			d.CustomData = append(d.CustomData, spec.relative(qc))
		}
	case ByCountry:
		values := map[string]float64{}
		relatives := map[string]float64{}
		for _, name := range s.OrganisationNames() {
			org := s[name]
			qc := spec.count(org)
			values[org.Country] += spec.value(qc)
			relatives[org.Country] += spec.relative(qc)
		}
		for _, country := range sortedKeys(values) {
			d.Labels = append(d.Labels, country)
			d.Values = append(d.Values, values[country])
			relative := relatives[country]
			if spec.capCountryPercent && 100 < relative {
				relative = 100
			}
			d.CustomData = append(d.CustomData, relative)
		}
	}
	return d
}
