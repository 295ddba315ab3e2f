package reportdoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

func sampleReport() analysis.Report {
	return analysis.Report{
		ID:          "r-1",
		CreatedAt:   "2024-03-01T12:00:00.000Z",
		PatentID:    "US-RE49889-E1",
		PatentTitle: "Shopping list | cart",
		CompanyName: "Walmart Inc.",
		TopInfringingProducts: []analysis.ProductFinding{
			{
				ProductName:            "Walmart+",
				InfringementScore:      85.5,
				InfringementLikelihood: "High",
				RelevantClaims:         []string{"1", "4"},
				Explanation:            "Implements the claimed list sync.",
				SpecificFeatures:       []string{"Shared lists"},
			},
			{ProductName: "Scan & Go", InfringementScore: 40, InfringementLikelihood: "Low"},
		},
		OverallRiskAssessment: "High Risk",
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := renderMarkdown(sampleReport(), "", time.UTC)

	for _, want := range []string{
		"# Infringement Report: Shopping list | cart\n",
		"- **Patent:** US-RE49889-E1\n",
		"- **Company:** Walmart Inc.\n",
		"- **Saved:** March 1, 2024 at 12:00 PM UTC\n",
		"- **Overall risk:** High Risk (error)\n",
		"| 1 | Walmart+ | 85.5 | High |\n",
		"| 2 | Scan & Go | 40 | Low |\n",
		"### 1. Walmart+\n",
		"**Relevant claims:** 1, 4\n",
		"- Shared lists\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Walmart+") > strings.Index(out, "Scan & Go") {
		t.Fatal("product order not preserved")
	}
	if strings.Contains(out, "Executive Brief") {
		t.Fatal("brief section rendered without a brief")
	}
}

func TestRenderMarkdownWithBriefAndNoProducts(t *testing.T) {
	r := sampleReport()
	r.PatentTitle = ""
	r.TopInfringingProducts = nil
	out := renderMarkdown(r, "Risk is concentrated in one product.", time.UTC)

	if !strings.HasPrefix(out, "# Infringement Report: US-RE49889-E1\n") {
		t.Fatalf("title should fall back to patent id:\n%s", out)
	}
	if !strings.Contains(out, "## Executive Brief\n\nRisk is concentrated in one product.\n") {
		t.Fatalf("brief missing:\n%s", out)
	}
	if !strings.Contains(out, "No infringing products were identified.") {
		t.Fatalf("empty product note missing:\n%s", out)
	}
}

func TestFormatLocal(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	tests := []struct {
		in, want string
	}{
		{"2024-03-01T12:00:00.000Z", "March 1, 2024 at 7:00 AM EST"},
		{"2024-11-02T10:00:00", "November 2, 2024 at 5:00 AM EST"},
		{"yesterday", "yesterday"},
	}
	for _, tt := range tests {
		if got := FormatLocal(tt.in, loc); got != tt.want {
			t.Fatalf("FormatLocal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTMLEscapesAndBadges(t *testing.T) {
	r := sampleReport()
	r.CompanyName = "<Acme>"
	out, err := HTML(r, renderMarkdown(r, "", time.UTC), "body{}")
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(out, "<title>Shopping list | cart / &lt;Acme&gt;</title>") {
		t.Fatalf("title not escaped: %s", out)
	}
	if !strings.Contains(out, "risk-badge risk-error") {
		t.Fatalf("risk badge missing: %s", out)
	}
	if !strings.Contains(out, "<table>") {
		t.Fatalf("GFM table not rendered: %s", out)
	}
	if !strings.Contains(out, `data-page-break-before="true">Product Details</h2>`) {
		t.Fatalf("page break hook missing: %s", out)
	}
}

func TestApplyPrintLayoutHooks(t *testing.T) {
	in := "<h2>Top Infringing Products</h2><table><tr><td>High</td><td>Low</td></tr></table><h2>Product Details</h2>"
	out := applyPrintLayoutHooks(in)
	if !strings.Contains(out, `<td class="likelihood risk-error">High</td>`) || !strings.Contains(out, `<td class="likelihood risk-success">Low</td>`) {
		t.Fatalf("likelihood cells not tagged: %s", out)
	}
	if !strings.Contains(out, `<h2 data-page-break-before="true">Product Details</h2>`) {
		t.Fatalf("page break missing: %s", out)
	}

	plain := "<h2>Summary</h2><p>x</p>"
	if got := applyPrintLayoutHooks(plain); got != plain {
		t.Fatalf("expected no change, got %s", got)
	}
}

func TestStylerPrefersWebDirOverride(t *testing.T) {
	if css := NewStyler("").CSS(); !strings.Contains(css, ".risk-badge") {
		t.Fatal("built-in stylesheet not embedded")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{color:red}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if css := NewStyler(dir).CSS(); css != "body{color:red}" {
		t.Fatalf("override not used: %q", css)
	}
}
