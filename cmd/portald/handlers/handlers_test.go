package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/strongaya/fdm-portal/cmd/portald/handlers"
	httptestutil "github.com/strongaya/fdm-portal/internal/testutils/http"
	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/descriptives/aggregate"
	"github.com/strongaya/fdm-portal/pkg/history"
	"github.com/strongaya/fdm-portal/pkg/schema"
	"github.com/strongaya/fdm-portal/pkg/utils/try"
)

func fixtureSnapshot() descriptives.Snapshot {
	return descriptives.Snapshot{
		"Clinic A": {
			Country:    "NL",
			SampleSize: 120,
			VariableInfo: []descriptives.ClassCount{
				{
					MainClass:      "http://ncicb.nci.nih.gov/xml/owl/EVS/Thesaurus.owl#C28421",
					MainClassCount: 115,
				},
			},
			Categorical: descriptives.NewFrame(map[string][]any{
				"variable": {"gender", "gender", "gender"},
				"value":    {"male", "female", "nan"},
				"count":    {60.0, 50.0, 10.0},
			}),
			Numerical: descriptives.NewFrame(map[string][]any{
				"variable":  {"age_at_diagnosis", "age_at_diagnosis"},
				"statistic": {"count", "nan"},
				"value":     {115.0, 5.0},
			}),
		},
		"Clinic B": {
			Country:    "IT",
			SampleSize: 80,
			Categorical: descriptives.NewFrame(map[string][]any{
				"variable": {"gender", "gender"},
				"value":    {"male", "nan"},
				"count":    {78.0, 2.0},
			}),
			Numerical: descriptives.NewFrame(map[string][]any{
				"variable":  {"age_at_diagnosis"},
				"statistic": {"count"},
				"value":     {80.0},
			}),
		},
	}
}

func fixtureStore(t *testing.T) history.Store {
	t.Helper()
	store := history.InMemory()
	ctx := context.Background()

	older := try.To(time.Parse(time.RFC3339, "2026-08-10T00:00:00Z")).OrFatal(t)
	newer := try.To(time.Parse(time.RFC3339, "2026-08-16T00:00:00Z")).OrFatal(t)
	if err := store.Put(ctx, older, descriptives.Snapshot{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put(ctx, newer, fixtureSnapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

type brokenStore struct {
	history.Store
}

func (brokenStore) Latest(context.Context) (string, descriptives.Snapshot, bool, error) {
	return "", nil, false, errors.New("store is down")
}

func (brokenStore) Slice(context.Context) (descriptives.History, error) {
	return nil, errors.New("store is down")
}

func httpStatusOf(t *testing.T, err error) int {
	t.Helper()
	httperr := new(echo.HTTPError)
	if !errors.As(err, &httperr) {
		t.Fatalf("unexpected error: %v", err)
	}
	return httperr.Code
}

func TestSummaryHandler(t *testing.T) {
	t.Run("it serves the latest snapshot's headline numbers", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/summary/")

		testee := handlers.SummaryHandler(fixtureStore(t))
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Code != http.StatusOK {
			t.Fatalf("unmatch: status: (actual, expected) = (%d, 200)", resp.Code)
		}

		actual := handlers.Summary{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}

		if actual.SampleSize != 200 {
			t.Errorf("unmatch: sampleSize: (actual, expected) = (%d, 200)", actual.SampleSize)
		}
		if actual.Organisations != 2 {
			t.Errorf("unmatch: organisations: (actual, expected) = (%d, 2)", actual.Organisations)
		}
		if actual.Countries != 2 {
			t.Errorf("unmatch: countries: (actual, expected) = (%d, 2)", actual.Countries)
		}
		if actual.FetchedAt != "2026-08-16T00:00:00Z" {
			t.Errorf("unmatch: fetchedAt: (actual, expected) = (%s, 2026-08-16T00:00:00Z)", actual.FetchedAt)
		}
		if len(actual.Timestamps) != 2 || actual.Timestamps[0] != "2026-08-10T00:00:00Z" {
			t.Errorf("unmatch: timestamps: %v", actual.Timestamps)
		}
	})

	t.Run("an empty history reads as zeroes", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/summary/")

		testee := handlers.SummaryHandler(history.InMemory())
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := handlers.Summary{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if actual.SampleSize != 0 || actual.Organisations != 0 || len(actual.Timestamps) != 0 {
			t.Errorf("unmatch: summary of empty history: %+v", actual)
		}
	})

	t.Run("a broken store reads as 503", func(t *testing.T) {
		e := echo.New()
		ectx, _ := httptestutil.Get(e, "/api/summary/")

		testee := handlers.SummaryHandler(brokenStore{})
		err := testee(ectx)
		if status := httpStatusOf(t, err); status != http.StatusServiceUnavailable {
			t.Errorf("unmatch: status: (actual, expected) = (%d, 503)", status)
		}
	})
}

func TestOrganisationsHandler(t *testing.T) {
	t.Run("it lists organisations with countries, sorted by name", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/organisations/")

		testee := handlers.OrganisationsHandler(fixtureStore(t))
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := []handlers.Organisation{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}

		expected := []handlers.Organisation{
			{Name: "Clinic A", Country: "NL"},
			{Name: "Clinic B", Country: "IT"},
		}
		if len(actual) != len(expected) {
			t.Fatalf("unmatch: length: (actual, expected) = (%d, %d)", len(actual), len(expected))
		}
		for i := range expected {
			if actual[i] != expected[i] {
				t.Errorf("unmatch: [%d]: (actual, expected) = (%+v, %+v)", i, actual[i], expected[i])
			}
		}
	})
}

func TestDonutChartHandler(t *testing.T) {
	type when struct {
		target string
	}
	type then struct {
		statusCode int
		labels     []string
		values     []float64
	}

	for name, testcase := range map[string]struct {
		when
		then
	}{
		"when asked availability per organisation, it serves sample sizes": {
			when{target: "/api/charts/donut/?domain=availability&by=organisation"},
			then{
				statusCode: http.StatusOK,
				labels:     []string{"Clinic A", "Clinic B"},
				values:     []float64{120, 80},
			},
		},
		"when asked availability per country, it sums per country": {
			when{target: "/api/charts/donut/?domain=availability&by=country"},
			then{
				statusCode: http.StatusOK,
				labels:     []string{"IT", "NL"},
				values:     []float64{80, 120},
			},
		},
		"when organisations are selected, others are left out": {
			when{target: "/api/charts/donut/?domain=availability&by=organisation&organisation=Clinic+B"},
			then{
				statusCode: http.StatusOK,
				labels:     []string{"Clinic B"},
				values:     []float64{80},
			},
		},
		"when the domain is unknown, it is a bad request": {
			when{target: "/api/charts/donut/?domain=cromulence&by=organisation"},
			then{statusCode: http.StatusBadRequest},
		},
		"when the grouping is unknown, it is a bad request": {
			when{target: "/api/charts/donut/?domain=availability&by=continent"},
			then{statusCode: http.StatusBadRequest},
		},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			ectx, resp := httptestutil.Get(e, testcase.when.target)

			testee := handlers.DonutChartHandler(fixtureStore(t), schema.Schema{}, "AYA")
			err := testee(ectx)

			if testcase.then.statusCode != http.StatusOK {
				if status := httpStatusOf(t, err); status != testcase.then.statusCode {
					t.Errorf(
						"unmatch: status: (actual, expected) = (%d, %d)",
						status, testcase.then.statusCode,
					)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			actual := aggregate.Donut{}
			if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
				t.Fatalf("response is not json: %v", err)
			}

			if len(actual.Labels) != len(testcase.then.labels) {
				t.Fatalf(
					"unmatch: labels: (actual, expected) = (%v, %v)",
					actual.Labels, testcase.then.labels,
				)
			}
			for i := range testcase.then.labels {
				if actual.Labels[i] != testcase.then.labels[i] {
					t.Errorf(
						"unmatch: labels[%d]: (actual, expected) = (%s, %s)",
						i, actual.Labels[i], testcase.then.labels[i],
					)
				}
				if actual.Values[i] != testcase.then.values[i] {
					t.Errorf(
						"unmatch: values[%d]: (actual, expected) = (%f, %f)",
						i, actual.Values[i], testcase.then.values[i],
					)
				}
			}
		})
	}
}

func TestVariableBarsHandler(t *testing.T) {
	barsSchema := schema.Schema{
		VariableInfo: map[string]schema.VariableInfo{
			"gender": {
				Class: "ncit:C17357",
				SchemaReconstruction: []schema.Reconstruction{
					{Type: "class", AestheticLabel: "demographic"},
				},
			},
			"age_at_diagnosis": {
				Class: "ncit:C28421",
				SchemaReconstruction: []schema.Reconstruction{
					{Type: "class", AestheticLabel: "clinical"},
				},
			},
		},
	}

	t.Run("it serves per-variable bars for completeness", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/charts/variables/?domain=completeness")

		testee := handlers.VariableBarsHandler(fixtureStore(t), barsSchema)
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := aggregate.Bars{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}

		if len(actual.Rows) != 2 {
			t.Fatalf("unmatch: rows: (actual, expected) = (%d, 2)", len(actual.Rows))
		}
		gender := actual.Rows[0]
		if gender.Variable != "gender" || gender.TotalGood != 188 || gender.TotalBad != 12 {
			t.Errorf("unmatch: gender row: %+v", gender)
		}
	})

	t.Run("a prefix filter narrows the variables", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/charts/variables/?domain=completeness&prefix=age")

		testee := handlers.VariableBarsHandler(fixtureStore(t), barsSchema)
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := aggregate.Bars{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if len(actual.Rows) != 1 || actual.Rows[0].Variable != "age_at_diagnosis" {
			t.Errorf("unmatch: rows: %+v", actual.Rows)
		}
	})

	t.Run("a category filter narrows the variables", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/charts/variables/?domain=completeness&category=demographic")

		testee := handlers.VariableBarsHandler(fixtureStore(t), barsSchema)
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := aggregate.Bars{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if len(actual.Rows) != 1 || actual.Rows[0].Variable != "gender" {
			t.Errorf("unmatch: rows: %+v", actual.Rows)
		}
	})

	t.Run("the availability domain has no bar chart", func(t *testing.T) {
		e := echo.New()
		ectx, _ := httptestutil.Get(e, "/api/charts/variables/?domain=availability")

		testee := handlers.VariableBarsHandler(fixtureStore(t), barsSchema)
		err := testee(ectx)
		if status := httpStatusOf(t, err); status != http.StatusBadRequest {
			t.Errorf("unmatch: status: (actual, expected) = (%d, 400)", status)
		}
	})
}

func TestAvailabilityHandler(t *testing.T) {
	fixtureSchema := schema.Schema{
		VariableInfo: map[string]schema.VariableInfo{
			"age_at_diagnosis": {Class: "ncit:C28421"},
		},
	}

	t.Run("it crosses the schema with the latest snapshot", func(t *testing.T) {
		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/availability/")

		testee := handlers.AvailabilityHandler(fixtureStore(t), fixtureSchema, "AYA")
		if err := testee(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := aggregate.Table{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}

		if len(actual.Rows) != 1 {
			t.Fatalf("unmatch: rows: (actual, expected) = (%d, 1)", len(actual.Rows))
		}
		row := actual.Rows[0]
		if row.Variable != "Age At Diagnosis" {
			t.Errorf("unmatch: variable: (actual, expected) = (%s, Age At Diagnosis)", row.Variable)
		}
		if row.Total != 115 {
			t.Errorf("unmatch: total: (actual, expected) = (%d, 115)", row.Total)
		}
		if row.Marks["Clinic A"] != "✔" || row.Marks["Clinic B"] != "✖" {
			t.Errorf("unmatch: marks: %v", row.Marks)
		}
	})
}

func TestSchemaHandler(t *testing.T) {
	t.Run("it serves the loaded schema as is", func(t *testing.T) {
		sch := schema.Schema{
			Prefixes: "PREFIX roo: <http://www.cancerdata.org/roo/>",
			VariableInfo: map[string]schema.VariableInfo{
				"gender": {Class: "ncit:C17357"},
			},
		}

		e := echo.New()
		ectx, resp := httptestutil.Get(e, "/api/schema/")

		if err := handlers.SchemaHandler(sch)(ectx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		actual := schema.Schema{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatalf("response is not json: %v", err)
		}
		if actual.Prefixes != sch.Prefixes {
			t.Errorf("unmatch: prefixes: (actual, expected) = (%s, %s)", actual.Prefixes, sch.Prefixes)
		}
		if actual.VariableInfo["gender"].Class != "ncit:C17357" {
			t.Errorf("unmatch: variable_info: %+v", actual.VariableInfo)
		}
	})
}
