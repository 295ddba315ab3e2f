package operator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/console"
	"github.com/joelkehle/infringement-console/internal/reportdoc"
	"github.com/joelkehle/infringement-console/internal/reportstore"
)

// ReportSource is what the reports pages read from.
type ReportSource interface {
	FetchAll(ctx context.Context) ([]analysis.Report, error)
	Get(ctx context.Context, id string) (*analysis.Report, error)
}

type Options struct {
	Sessions       *SessionStore
	Reports        ReportSource
	PDF            reportdoc.Renderer
	WebDir         string
	AllowedOrigins []string
}

type Server struct {
	sessions *SessionStore
	reports  ReportSource
	pdf      reportdoc.Renderer
	webDir   string
}

func NewServer(opts Options) http.Handler {
	s := &Server{
		sessions: opts.Sessions,
		reports:  opts.Reports,
		pdf:      opts.PDF,
		webDir:   opts.WebDir,
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.sessions.Len()})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/console", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{token}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleSnapshot))
			r.Delete("/", s.handleCloseSession)
			r.Put("/inputs/{field}", s.withSession(s.handleInput))
			r.Post("/suggestions/patent", s.withSession(s.handleSelectPatent))
			r.Post("/suggestions/company", s.withSession(s.handleSelectCompany))
			r.Post("/analyze", s.withSession(s.handleAnalyze))
			r.Post("/save", s.withSession(s.handleSave))
			r.Post("/notice/dismiss", s.withSession(s.handleDismissNotice))
		})
		r.Get("/reports", s.handleReports)
		r.Get("/reports/{id}/markdown", s.handleReportMarkdown)
		r.Get("/reports/{id}/pdf", s.handleReportPDF)
	})
	r.NotFound(s.handleRoot)
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.webDir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	// Prevent stale frontend bundles from breaking the UI after deploys.
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		http.ServeFile(w, r, filepath.Join(s.webDir, "index.html"))
		return
	}
	rel := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
	if _, err := fs.Stat(os.DirFS(s.webDir), rel); err == nil {
		http.ServeFile(w, r, filepath.Join(s.webDir, rel))
		return
	}
	http.NotFound(w, r)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Get(chi.URLParam(r, "token"))
		if sess == nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		defer s.sessions.touch(sess)
		h(w, r, sess)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	log.Printf("session created token=%s", sess.Token[:8])
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":    sess.Token,
		"snapshot": sess.View.Snapshot(),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(chi.URLParam(r, "token")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, sess *Session) {
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request, sess *Session) {
	var body struct {
		Value string `json:"value"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch chi.URLParam(r, "field") {
	case "patent-id":
		sess.View.SetPatentID(body.Value)
	case "patent-title":
		sess.View.SetPatentTitle(r.Context(), body.Value)
	case "company-name":
		sess.View.SetCompanyName(r.Context(), body.Value)
	default:
		writeError(w, http.StatusNotFound, "unknown input field")
		return
	}
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleSelectPatent(w http.ResponseWriter, r *http.Request, sess *Session) {
	var body analysis.PatentSuggestion
	if err := decodeBody(w, r, &body); err != nil || strings.TrimSpace(body.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	sess.View.SelectPatent(body)
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleSelectCompany(w http.ResponseWriter, r *http.Request, sess *Session) {
	var body analysis.CompanySuggestion
	if err := decodeBody(w, r, &body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	sess.View.SelectCompany(body)
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, sess *Session) {
	// The analysis outlives a dropped connection; closing the session stops it.
	err := sess.View.Analyze(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *Session) {
	outcome, err := sess.View.Save(context.WithoutCancel(r.Context()))
	if err != nil && outcome == "" {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcome":  outcome,
		"snapshot": sess.View.Snapshot(),
	})
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request, sess *Session) {
	sess.View.DismissNotice()
	writeJSON(w, http.StatusOK, sess.View.Snapshot())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, console.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrAnalysisInFlight),
		errors.Is(err, console.ErrSaveInFlight),
		errors.Is(err, console.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, console.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	view := console.NewReportsView(s.reports)
	view.Load(r.Context())
	writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*analysis.Report, bool) {
	id := chi.URLParam(r, "id")
	report, err := s.reports.Get(r.Context(), id)
	switch {
	case errors.Is(err, reportstore.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report not found")
		return nil, false
	case err != nil:
		log.Printf("load report failed id=%s err=%v", id, err)
		writeError(w, http.StatusBadGateway, "failed to load report")
		return nil, false
	}
	return report, true
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reportdoc.Markdown(*report)))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf renderer unavailable")
		return
	}
	report, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	pdf, err := s.pdf.Render(r.Context(), *report)
	if err != nil {
		log.Printf("render report pdf failed id=%s err=%v", report.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	filename := fmt.Sprintf("%s-%s.pdf", sanitizeFilename(report.PatentID), sanitizeFilename(report.CompanyName))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "report"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
}
