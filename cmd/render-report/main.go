package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/apiclient"
	"github.com/joelkehle/infringement-console/internal/briefing"
	"github.com/joelkehle/infringement-console/internal/reportdoc"
	"github.com/joelkehle/infringement-console/internal/reportstore"
)

func main() {
	inputPath := flag.String("input", "", "Path to a saved report JSON file")
	reportID := flag.String("id", "", "Fetch the report with this id from the backend instead of -input")
	backendURL := flag.String("backend-url", envOr("INFRINGE_BACKEND_URL", "http://localhost:8000"), "Analysis backend base URL")
	outputPath := flag.String("output", "", "Path to write markdown (defaults to stdout)")
	pdfPath := flag.String("pdf", "", "Optional path to write a PDF rendering")
	webDir := flag.String("web-dir", "", "Directory with a style.css overriding the built-in stylesheet")
	withBrief := flag.Bool("brief", false, "Prepend an executive brief (requires ANTHROPIC_API_KEY)")
	flag.Parse()

	if (*inputPath == "") == (*reportID == "") {
		log.Fatal("exactly one of -input or -id is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := loadReport(ctx, *inputPath, *reportID, *backendURL)
	if err != nil {
		log.Fatalf("load report: %v", err)
	}

	markdown := reportdoc.Markdown(report)
	if *withBrief {
		b, err := briefing.NewFromEnv()
		if err != nil {
			log.Fatalf("brief: %v", err)
		}
		brief, err := b.Brief(ctx, report)
		if err != nil {
			log.Fatalf("brief: %v", err)
		}
		markdown = reportdoc.MarkdownWithBrief(report, brief)
	}

	if err := writeMarkdown(*outputPath, markdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}
	if *pdfPath != "" {
		pdf, err := reportdoc.NewChromiumRenderer(*webDir).RenderMarkdown(ctx, report, markdown)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
}

func loadReport(ctx context.Context, inputPath, id, backendURL string) (analysis.Report, error) {
	if id != "" {
		r, err := reportstore.New(apiclient.NewClient(backendURL)).Get(ctx, id)
		if err != nil {
			return analysis.Report{}, err
		}
		return *r, nil
	}
	in, err := os.ReadFile(inputPath)
	if err != nil {
		return analysis.Report{}, err
	}
	var r analysis.Report
	if err := json.Unmarshal(in, &r); err != nil {
		return analysis.Report{}, fmt.Errorf("decode input JSON: %w", err)
	}
	return r, nil
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
