package reportdoc

import (
	_ "embed"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

//go:embed report.css
var defaultCSS string

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Styler supplies the stylesheet for rendered reports. A style.css in the
// web directory overrides the built-in one.
type Styler struct {
	webDir string
	once   sync.Once
	css    string
}

func NewStyler(webDir string) *Styler {
	return &Styler{webDir: webDir}
}

func (s *Styler) CSS() string {
	s.once.Do(func() {
		s.css = defaultCSS
		if s.webDir == "" {
			return
		}
		if b, err := os.ReadFile(filepath.Join(s.webDir, "style.css")); err == nil {
			s.css = string(b)
		}
	})
	return s.css
}

// HTML renders a report's markdown into a standalone page.
func HTML(r analysis.Report, markdown, css string) (string, error) {
	var content strings.Builder
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	tier := analysis.ClassifyRisk(r.OverallRiskAssessment)
	return "<!doctype html><html><head><meta charset='utf-8'><title>" +
		html.EscapeString(r.DisplayTitle()) + " / " + html.EscapeString(r.CompanyName) + "</title>" +
		"<style>" + css + "\n" +
		"html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
		`h2[data-page-break-before="true"]{break-before:page;page-break-before:always;} ` +
		"@media print{ @page{size:auto;margin:12mm;} body{padding:0;} }" +
		"</style></head><body>" +
		"<section class='report-viewer'><div class='report-header'>" +
		"<span class='risk-badge risk-" + string(tier) + "'>" + html.EscapeString(orDash(r.OverallRiskAssessment)) + "</span>" +
		"</div><div class='report-html'>" + applyPrintLayoutHooks(content.String()) + "</div></section>" +
		"</body></html>", nil
}

var (
	reDetailsHeading = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Product Details\s*</h2>`)
	reLikelihoodCell = regexp.MustCompile(`<td>(High|Moderate|Medium|Low)</td>`)
)

// applyPrintLayoutHooks starts product details on a fresh page and tags
// likelihood cells so the stylesheet can colour them.
func applyPrintLayoutHooks(contentHTML string) string {
	out := reDetailsHeading.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Product Details</h2>`)
	return reLikelihoodCell.ReplaceAllStringFunc(out, func(cell string) string {
		label := reLikelihoodCell.FindStringSubmatch(cell)[1]
		return fmt.Sprintf(`<td class="likelihood risk-%s">%s</td>`, analysis.ClassifyRisk(label), label)
	})
}
