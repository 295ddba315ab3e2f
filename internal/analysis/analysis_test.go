package analysis

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		label string
		want  RiskTier
	}{
		{"High Risk", TierError},
		{"Low Risk", TierSuccess},
		{"Medium Risk", TierWarning},
		{"", TierWarning},
		{"Moderate", TierWarning},
		// Substring matching is a heuristic; these document its edges.
		{"Highlight", TierError},
		{"Low to High", TierSuccess},
		{"high risk", TierWarning},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := ClassifyRisk(tt.label); got != tt.want {
				t.Fatalf("ClassifyRisk(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func ids(reports []Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func TestSortByRecencyOrdersNewestFirst(t *testing.T) {
	in := []Report{
		{ID: "jan", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "mar", CreatedAt: "2024-03-01T00:00:00Z"},
		{ID: "feb", CreatedAt: "2024-02-01T00:00:00Z"},
	}
	got := ids(SortByRecency(in))
	want := []string{"mar", "feb", "jan"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if in[0].ID != "jan" {
		t.Fatalf("input slice was modified: %v", ids(in))
	}
}

func TestSortByRecencyIsPermutationIndependent(t *testing.T) {
	base := []Report{
		{ID: "a", CreatedAt: "2024-05-01T10:00:00.000Z"},
		{ID: "b", CreatedAt: "2024-05-01T10:00:00Z"}, // same instant as a
		{ID: "c", CreatedAt: "2024-05-02T00:00:00+02:00"},
		{ID: "d", CreatedAt: "not a date"},
		{ID: "e", CreatedAt: "2023-12-31T23:59:59.999Z"},
	}
	want := []string{"c", "a", "b", "e", "d"}

	perms := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{3, 4, 1, 0, 2},
	}
	for _, p := range perms {
		in := make([]Report, len(p))
		for i, idx := range p {
			in[i] = base[idx]
		}
		got := ids(SortByRecency(in))
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("perm %v: order = %v, want %v", p, got, want)
		}
	}
}

func TestSortByRecencyIdempotent(t *testing.T) {
	in := []Report{
		{ID: "x", CreatedAt: "2024-02-01T00:00:00Z"},
		{ID: "y", CreatedAt: "2024-02-01T00:00:00Z"},
		{ID: "z", CreatedAt: "2025-02-01T00:00:00Z"},
	}
	once := SortByRecency(in)
	twice := SortByRecency(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("sorting a sorted list changed it: %v -> %v", ids(once), ids(twice))
	}
}

func TestSortByRecencyEmpty(t *testing.T) {
	got := SortByRecency(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestNewReportCopiesResult(t *testing.T) {
	result := &AnalysisResult{
		AnalysisID:   "an-1",
		PatentID:     "US-RE49889-E1",
		CompanyName:  "Walmart Inc.",
		AnalysisDate: "2024-10-01T12:00:00",
		TopInfringingProducts: []ProductFinding{
			{ProductName: "Walmart+", InfringementScore: 85, InfringementLikelihood: "High", RelevantClaims: []string{"1", "4"}},
			{ProductName: "Scan & Go", InfringementScore: 40, InfringementLikelihood: "Moderate"},
		},
		OverallRiskAssessment: "High Risk",
	}
	at := time.Date(2024, 3, 1, 12, 30, 0, 5_000_000, time.FixedZone("X", 3600))
	r := NewReport(result, "Shopping list", "id-1", at)

	if r.ID != "id-1" || r.CreatedAt != "2024-03-01T11:30:00.005Z" {
		t.Fatalf("unexpected identity fields: %q %q", r.ID, r.CreatedAt)
	}
	if r.PatentAbstract != "" {
		t.Fatalf("abstract must be empty at save time, got %q", r.PatentAbstract)
	}
	if r.PatentTitle != "Shopping list" || r.CompanyName != "Walmart Inc." || r.OverallRiskAssessment != "High Risk" {
		t.Fatalf("provenance not copied: %+v", r)
	}
	if r.Key() != result.Key() {
		t.Fatalf("key mismatch: %v vs %v", r.Key(), result.Key())
	}
	if r.TopInfringingProducts[0].ProductName != "Walmart+" || r.TopInfringingProducts[1].ProductName != "Scan & Go" {
		t.Fatalf("product order not preserved: %+v", r.TopInfringingProducts)
	}

	result.TopInfringingProducts[0].RelevantClaims[0] = "changed"
	if r.TopInfringingProducts[0].RelevantClaims[0] != "1" {
		t.Fatal("report shares claim storage with the result")
	}

	blob, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(blob), "null") {
		t.Fatalf("report JSON must not contain null arrays: %s", blob)
	}
}

func TestDisplayTitleFallsBackToPatentID(t *testing.T) {
	if got := (Report{PatentID: "US-1", PatentTitle: "  "}).DisplayTitle(); got != "US-1" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := (Report{PatentID: "US-1", PatentTitle: "Widget"}).DisplayTitle(); got != "Widget" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
