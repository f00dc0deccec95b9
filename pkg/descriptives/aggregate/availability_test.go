package aggregate_test

import (
	"strings"
	"testing"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/descriptives/aggregate"
	"github.com/strongaya/fdm-portal/pkg/schema"
)

func fixtureSchema() schema.Schema {
	return schema.Schema{
		Prefixes: `PREFIX roo: <http://www.cancerdata.org/roo/>`,
		VariableInfo: map[string]schema.VariableInfo{
			"gender": {
				Class: "ncit:C17357",
				ValueMapping: &schema.ValueMapping{
					Terms: map[string]schema.Term{
						"male":                   {TargetClass: "ncit:C20197"},
						"female":                 {TargetClass: "ncit:C16576"},
						"missing_or_unspecified": {TargetClass: "ncit:C54031"},
					},
				},
			},
			"age_at_diagnosis": {Class: "roo:represents_age_at_diagnosis"},
		},
	}
}

func fixtureClassCounts() descriptives.Snapshot {
	genderClass := schema.NCItURI + "C17357"
	maleClass := schema.NCItURI + "C20197"
	femaleClass := schema.NCItURI + "C16576"
	ageClass := "http://www.cancerdata.org/roo/represents_age_at_diagnosis"

	return descriptives.Snapshot{
		"Clinic A": {
			Country: "Netherlands", SampleSize: 120,
			VariableInfo: []descriptives.ClassCount{
				{MainClass: genderClass, MainClassCount: 118},
				{MainClass: genderClass, MainClassCount: 118, SubClass: maleClass, SubClassCount: 60},
				{MainClass: genderClass, MainClassCount: 118, SubClass: femaleClass, SubClassCount: 50},
				{MainClass: ageClass, MainClassCount: 115},
			},
		},
		"Clinic B": {
			Country: "Italy", SampleSize: 80,
			VariableInfo: []descriptives.ClassCount{
				{MainClass: genderClass, MainClassCount: 80},
				{MainClass: genderClass, MainClassCount: 80, SubClass: maleClass, SubClassCount: 40},
			},
		},
	}
}

func TestAvailabilityTable(t *testing.T) {
	table := aggregate.AvailabilityTable(fixtureSchema(), fixtureClassCounts(), "AYA")

	assertStrings(t, "organisations", table.Organisations, []string{"Clinic A", "Clinic B"})

	// variables sorted; gender's terms follow the gender row,
	// with missing_or_unspecified hidden.
	if len(table.Rows) != 4 {
		t.Fatalf("unmatch: rows: (actual, expected) = (%d, 4)", len(table.Rows))
	}

	age := table.Rows[0]
	if age.Variable != "Age At Diagnosis" || age.Value != "" {
		t.Errorf("unmatch: row #0: %+v", age)
	}
	if age.Total != 115 {
		t.Errorf("unmatch: age total: (actual, expected) = (%d, 115)", age.Total)
	}
	if age.Marks["Clinic A"] != "✔" || age.Marks["Clinic B"] != "✖" {
		t.Errorf("unmatch: age marks: %v", age.Marks)
	}
	if age.Counts["Clinic A"] != 115 || age.Counts["Clinic B"] != 0 {
		t.Errorf("unmatch: age counts: %v", age.Counts)
	}

	gender := table.Rows[1]
	if gender.Variable != "Gender" {
		t.Errorf("unmatch: row #1: %+v", gender)
	}
	if gender.Total != 198 {
		t.Errorf("unmatch: gender total: (actual, expected) = (%d, 198)", gender.Total)
	}
	if gender.Marks["Clinic A"] != "✔" || gender.Marks["Clinic B"] != "✔" {
		t.Errorf("unmatch: gender marks: %v", gender.Marks)
	}

	female := table.Rows[2]
	if female.Variable != "" || female.Value != "Female" {
		t.Errorf("unmatch: row #2: %+v", female)
	}
	if female.Total != 50 {
		t.Errorf("unmatch: female total: (actual, expected) = (%d, 50)", female.Total)
	}
	if female.Marks["Clinic A"] != "✔" || female.Marks["Clinic B"] != "✖" {
		t.Errorf("unmatch: female marks: %v", female.Marks)
	}

	male := table.Rows[3]
	if male.Value != "Male" || male.Total != 100 {
		t.Errorf("unmatch: row #3: %+v", male)
	}
	if male.Counts["Clinic A"] != 60 || male.Counts["Clinic B"] != 40 {
		t.Errorf("unmatch: male counts: %v", male.Counts)
	}
}

func TestAvailabilityTable_Tooltips(t *testing.T) {
	table := aggregate.AvailabilityTable(fixtureSchema(), fixtureClassCounts(), "AYA")

	gender := table.Rows[1]
	if !strings.Contains(gender.Tooltip.Variable, "Associated class: ncit:C17357") {
		t.Errorf("the class in a tooltip should be compacted: %s", gender.Tooltip.Variable)
	}
	if !strings.Contains(gender.Tooltip.Total, "Clinic A: __118__") ||
		!strings.Contains(gender.Tooltip.Total, "Clinic B: __80__") {
		t.Errorf("unmatch: gender total tooltip: %s", gender.Tooltip.Total)
	}
	if expected := "__118__ AYAs in Clinic A have information on __gender__."; gender.Tooltip.PerOrganisation["Clinic A"] != expected {
		t.Errorf("unmatch: (actual, expected) = (%s, %s)", gender.Tooltip.PerOrganisation["Clinic A"], expected)
	}

	age := table.Rows[0]
	if expected := "Data for __age at diagnosis__ appears unavailable for Clinic B."; age.Tooltip.PerOrganisation["Clinic B"] != expected {
		t.Errorf("unmatch: (actual, expected) = (%s, %s)", age.Tooltip.PerOrganisation["Clinic B"], expected)
	}

	female := table.Rows[2]
	if !strings.Contains(female.Tooltip.Value, "Associated class: ncit:C16576") {
		t.Errorf("unmatch: female value tooltip: %s", female.Tooltip.Value)
	}
	if expected := "No AYAs that have __female__ as gender appear available in Clinic B."; female.Tooltip.PerOrganisation["Clinic B"] != expected {
		t.Errorf("unmatch: (actual, expected) = (%s, %s)", female.Tooltip.PerOrganisation["Clinic B"], expected)
	}
}

func TestAvailabilityTable_EmptySnapshot(t *testing.T) {
	table := aggregate.AvailabilityTable(fixtureSchema(), descriptives.Snapshot{}, "AYA")

	if len(table.Organisations) != 0 {
		t.Errorf("unmatch: organisations: %v", table.Organisations)
	}
	// schema variables still produce rows, with zero totals.
	if len(table.Rows) != 4 {
		t.Fatalf("unmatch: rows: (actual, expected) = (%d, 4)", len(table.Rows))
	}
	for _, row := range table.Rows {
		if row.Total != 0 {
			t.Errorf("unmatch: total of %s%s: (actual, expected) = (%d, 0)", row.Variable, row.Value, row.Total)
		}
	}
}
