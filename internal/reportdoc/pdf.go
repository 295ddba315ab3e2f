package reportdoc

import (
	"context"
	"encoding/base64"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

// Renderer turns a saved report into a PDF.
type Renderer interface {
	Render(ctx context.Context, r analysis.Report) ([]byte, error)
}

// ChromiumRenderer prints the report's HTML through a headless Chromium.
type ChromiumRenderer struct {
	styler     *Styler
	chromePath string
	timeout    time.Duration
}

func NewChromiumRenderer(webDir string) *ChromiumRenderer {
	return &ChromiumRenderer{
		styler:     NewStyler(webDir),
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
	}
}

func (c *ChromiumRenderer) Render(ctx context.Context, r analysis.Report) ([]byte, error) {
	return c.RenderMarkdown(ctx, r, Markdown(r))
}

// RenderMarkdown prints markdown already rendered for r, such as one carrying
// an executive brief.
func (c *ChromiumRenderer) RenderMarkdown(ctx context.Context, r analysis.Report, markdown string) ([]byte, error) {
	htmlDoc, err := HTML(r, markdown, c.styler.CSS())
	if err != nil {
		return nil, err
	}
	return c.print(ctx, htmlDoc)
}

func (c *ChromiumRenderer) print(ctx context.Context, htmlDoc string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if c.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.5).
				WithMarginRight(0.5).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, p := range []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
