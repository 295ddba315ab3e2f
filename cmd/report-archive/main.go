package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/apiclient"
	"github.com/joelkehle/infringement-console/internal/archive"
	"github.com/joelkehle/infringement-console/internal/config"
	"github.com/joelkehle/infringement-console/internal/reportdoc"
	"github.com/joelkehle/infringement-console/internal/reportstore"
)

const usage = `usage: report-archive [-config file] [-db path] <command> [flags]

commands:
  sync          copy every saved report from the backend into the archive
  list          print archived reports, newest first
  show -id ID   print one archived report as markdown
`

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	dbPath := flag.String("db", "", "Archive database path (overrides config)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Archive.Path = *dbPath
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a, err := archive.Open(cfg.Archive.Path, nil)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer a.Close()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "sync":
		err = runSync(ctx, a, cfg.Backend.URL)
	case "list":
		err = runList(ctx, a)
	case "show":
		err = runShow(ctx, a, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runSync(ctx context.Context, a *archive.Archive, backendURL string) error {
	reports, err := reportstore.New(apiclient.NewClient(backendURL)).FetchAll(ctx)
	if err != nil {
		return err
	}
	n, err := a.Upsert(ctx, reports)
	if err != nil {
		return err
	}
	total, err := a.Count(ctx)
	if err != nil {
		return err
	}
	log.Printf("archived reports count=%d total=%d backend=%s", n, total, backendURL)
	return nil
}

func runList(ctx context.Context, a *archive.Archive) error {
	reports, err := a.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAVED\tPATENT\tCOMPANY\tRISK")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, savedAt(r), r.DisplayTitle(), r.CompanyName, r.OverallRiskAssessment)
	}
	return tw.Flush()
}

func runShow(ctx context.Context, a *archive.Archive, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "Report id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("missing required -id")
	}
	r, err := a.Get(ctx, *id)
	if err != nil {
		return err
	}
	_, err = fmt.Print(reportdoc.Markdown(*r))
	return err
}

func savedAt(r analysis.Report) string {
	if t, ok := analysis.ParseTimestamp(r.CreatedAt); ok {
		return t.In(time.Local).Format("2006-01-02 15:04")
	}
	return r.CreatedAt
}
