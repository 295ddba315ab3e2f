package reportdoc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

const displayLayout = "January 2, 2006 at 3:04 PM MST"

// Markdown renders a saved report for reading or printing. Timestamps are
// shown in the local time zone.
func Markdown(r analysis.Report) string {
	return renderMarkdown(r, "", time.Local)
}

// MarkdownWithBrief is Markdown with an executive brief ahead of the findings.
func MarkdownWithBrief(r analysis.Report, brief string) string {
	return renderMarkdown(r, brief, time.Local)
}

func renderMarkdown(r analysis.Report, brief string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Infringement Report: %s\n\n", escapeInline(r.DisplayTitle()))
	fmt.Fprintf(&b, "- **Patent:** %s\n", escapeInline(r.PatentID))
	if t := strings.TrimSpace(r.PatentTitle); t != "" && t != r.PatentID {
		fmt.Fprintf(&b, "- **Title:** %s\n", escapeInline(t))
	}
	fmt.Fprintf(&b, "- **Company:** %s\n", escapeInline(r.CompanyName))
	if r.CreatedAt != "" {
		fmt.Fprintf(&b, "- **Saved:** %s\n", FormatLocal(r.CreatedAt, loc))
	}
	fmt.Fprintf(&b, "- **Overall risk:** %s (%s)\n", escapeInline(orDash(r.OverallRiskAssessment)), analysis.ClassifyRisk(r.OverallRiskAssessment))
	if a := strings.TrimSpace(r.PatentAbstract); a != "" {
		fmt.Fprintf(&b, "\n## Abstract\n\n%s\n", a)
	}
	if brief = strings.TrimSpace(brief); brief != "" {
		fmt.Fprintf(&b, "\n## Executive Brief\n\n%s\n", brief)
	}

	b.WriteString("\n## Top Infringing Products\n\n")
	if len(r.TopInfringingProducts) == 0 {
		b.WriteString("No infringing products were identified.\n")
		return b.String()
	}
	b.WriteString("| # | Product | Score | Likelihood |\n|---|---|---|---|\n")
	for i, p := range r.TopInfringingProducts {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, escapeCell(p.ProductName), formatScore(p.InfringementScore), escapeCell(orDash(p.InfringementLikelihood)))
	}

	b.WriteString("\n## Product Details\n")
	for i, p := range r.TopInfringingProducts {
		fmt.Fprintf(&b, "\n### %d. %s\n\n", i+1, escapeInline(p.ProductName))
		if len(p.RelevantClaims) > 0 {
			fmt.Fprintf(&b, "**Relevant claims:** %s\n\n", escapeInline(strings.Join(p.RelevantClaims, ", ")))
		}
		if e := strings.TrimSpace(p.Explanation); e != "" {
			b.WriteString(e + "\n\n")
		}
		if len(p.SpecificFeatures) > 0 {
			b.WriteString("**Specific features:**\n\n")
			for _, f := range p.SpecificFeatures {
				fmt.Fprintf(&b, "- %s\n", escapeInline(f))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatLocal renders a backend or client timestamp in loc. Values carrying
// no zone are taken as UTC; anything unparseable is returned as is.
func FormatLocal(s string, loc *time.Location) string {
	if t, ok := analysis.ParseTimestamp(s); ok {
		return t.In(loc).Format(displayLayout)
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC); err == nil {
		return t.In(loc).Format(displayLayout)
	}
	return s
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", `\|`)
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"\n", " ",
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(strings.TrimSpace(s))
}
