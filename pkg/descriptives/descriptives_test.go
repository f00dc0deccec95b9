package descriptives_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
	"github.com/strongaya/fdm-portal/pkg/utils/try"
)

func TestCount_UnmarshalJSON(t *testing.T) {
	for name, tc := range map[string]struct {
		payload  string
		expected descriptives.Count
		err      bool
	}{
		"a JSON number":    {payload: `120`, expected: 120},
		"a numeric string": {payload: `"120"`, expected: 120},
		"null":             {payload: `null`, expected: 0},
		"non-numeric text": {payload: `"a lot"`, err: true},
	} {
		t.Run(name, func(t *testing.T) {
			var actual descriptives.Count
			err := json.Unmarshal([]byte(tc.payload), &actual)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, but got %d", actual)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if actual != tc.expected {
				t.Errorf("unmatch: (actual, expected) = (%d, %d)", actual, tc.expected)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	entries := []descriptives.CollaborationEntry{
		{
			Organisation: "Clinic A", Country: "Netherlands", SampleSize: 120,
			VariableInfo: []descriptives.ClassCount{
				{MainClass: "ncit:C17357", MainClassCount: 118},
			},
		},
		{Organisation: "Clinic B", Country: "Italy", SampleSize: 85},
	}
	stats := &descriptives.StatisticsResult{
		PartialResults: []descriptives.PartialStatistics{
			{
				OrganisationName: "Clinic A",
				Categorical: descriptives.NewFrame(map[string][]any{
					"variable": {"gender"}, "value": {"male"}, "count": {float64(60)},
				}),
				ExcludedVariables: []string{"eortc_qlq_c30"},
			},
			{OrganisationName: "Clinic C"}, // no such organisation in the descriptives
		},
	}

	snapshot := descriptives.Merge(entries, stats)

	if len(snapshot) != 2 {
		t.Fatalf("unmatch: len: (actual, expected) = (%d, 2)", len(snapshot))
	}

	a, ok := snapshot["Clinic A"]
	if !ok {
		t.Fatal("Clinic A is missing")
	}
	if a.Country != "Netherlands" || a.SampleSize != 120 {
		t.Errorf("unmatch: Clinic A: %+v", a)
	}
	if a.Categorical.Len() != 1 {
		t.Errorf("unmatch: Clinic A categorical rows: (actual, expected) = (%d, 1)", a.Categorical.Len())
	}
	if len(a.ExcludedVariables) != 1 || a.ExcludedVariables[0] != "eortc_qlq_c30" {
		t.Errorf("unmatch: Clinic A excluded variables: %v", a.ExcludedVariables)
	}

	b, ok := snapshot["Clinic B"]
	if !ok {
		t.Fatal("Clinic B is missing")
	}
	if b.Categorical.Len() != 0 {
		t.Errorf("Clinic B should have empty summary tables, but: %d rows", b.Categorical.Len())
	}

	if _, ok := snapshot["Clinic C"]; ok {
		t.Error("statistics without a matching organisation should be dropped")
	}
}

func TestMerge_WithoutStatistics(t *testing.T) {
	entries := []descriptives.CollaborationEntry{
		{Organisation: "Clinic A", Country: "Netherlands", SampleSize: 120},
	}

	snapshot := descriptives.Merge(entries, nil)
	if len(snapshot) != 1 {
		t.Fatalf("unmatch: len: (actual, expected) = (%d, 1)", len(snapshot))
	}
	if snapshot["Clinic A"].SampleSize != 120 {
		t.Errorf("unmatch: %+v", snapshot["Clinic A"])
	}
}

func TestHistory(t *testing.T) {
	h := descriptives.History{}

	if _, _, ok := h.Latest(); ok {
		t.Error("empty history should have no latest snapshot")
	}

	older := try.To(time.Parse(time.RFC3339, "2026-08-10T12:00:00Z")).OrFatal(t)
	newer := try.To(time.Parse(time.RFC3339, "2026-08-16T12:00:00Z")).OrFatal(t)

	h.Add(newer, descriptives.Snapshot{"Clinic B": {}})
	h.Add(older, descriptives.Snapshot{"Clinic A": {}})

	ts := h.Timestamps()
	if len(ts) != 2 || ts[0] != "2026-08-10T12:00:00Z" || ts[1] != "2026-08-16T12:00:00Z" {
		t.Errorf("unmatch: timestamps: %v", ts)
	}

	at, snapshot, ok := h.Latest()
	if !ok {
		t.Fatal("latest snapshot is not found")
	}
	if at != "2026-08-16T12:00:00Z" {
		t.Errorf("unmatch: at: (actual, expected) = (%s, 2026-08-16T12:00:00Z)", at)
	}
	if _, ok := snapshot["Clinic B"]; !ok {
		t.Errorf("unmatch: latest snapshot: %v", snapshot)
	}
}

func TestSnapshot_OrganisationNames(t *testing.T) {
	s := descriptives.Snapshot{
		"Clinic B": {}, "Clinic A": {}, "Clinic C": {},
	}
	actual := s.OrganisationNames()
	expected := []string{"Clinic A", "Clinic B", "Clinic C"}
	for i := range expected {
		if actual[i] != expected[i] {
			t.Errorf("unmatch at #%d: (actual, expected) = (%s, %s)", i, actual[i], expected[i])
		}
	}
}
