package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joelkehle/infringement-console/internal/apiclient"
	"github.com/joelkehle/infringement-console/internal/config"
	"github.com/joelkehle/infringement-console/internal/console"
	"github.com/joelkehle/infringement-console/internal/operator"
	"github.com/joelkehle/infringement-console/internal/reportdoc"
	"github.com/joelkehle/infringement-console/internal/reportstore"
	"github.com/joelkehle/infringement-console/internal/suggest"
	"github.com/joelkehle/infringement-console/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		backendURL = flag.String("backend-url", "", "Analysis backend base URL (overrides config)")
		addr       = flag.String("addr", "", "Console listen address (overrides config)")
		webDir     = flag.String("web-dir", "", "Directory containing web UI files (overrides config)")
		noPDF      = flag.Bool("no-pdf", false, "Disable PDF rendering")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *backendURL != "" {
		cfg.Backend.URL = *backendURL
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}
	web := resolveWebDir(cfg.Server.WebDir, os.Executable)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	client := apiclient.NewClient(cfg.Backend.URL)
	store := reportstore.New(client)
	fetcher := suggest.NewFetcher(client)
	sessions := operator.NewSessionStore(func() *console.AnalysisView {
		return console.NewAnalysisView(console.Config{
			Analyzer:  client,
			Saver:     store,
			Suggester: fetcher,
			NoticeTTL: cfg.Console.NoticeTTL,
		})
	}, cfg.Server.SessionIdleTimeout, nil)
	go sessions.SweepLoop(ctx, cfg.Server.SweepInterval)

	var pdf reportdoc.Renderer
	if !*noPDF {
		pdf = reportdoc.NewChromiumRenderer(web)
	}
	handler := operator.NewServer(operator.Options{
		Sessions:       sessions,
		Reports:        store,
		PDF:            pdf,
		WebDir:         web,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	log.Printf("console listening on %s (backend=%s)", cfg.Server.Addr, client.BaseURL())
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		sessions.CloseAll()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = srv.Shutdown(sctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// resolveWebDir finds a relative web dir next to the binary when it is not
// under the working directory. An empty dir keeps static serving off.
func resolveWebDir(dir string, executable func() (string, error)) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	exe, err := executable()
	if err != nil {
		return dir
	}
	return filepath.Join(filepath.Dir(exe), "..", "..", dir)
}
