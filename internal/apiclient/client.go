package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

const (
	SuggestLimit     = 5
	SuggestThreshold = 60
)

var (
	ErrAnalysisFailed = errors.New("analysis failed")
	errEmptyBody      = errors.New("empty response body")
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed status=%d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s failed status=%d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsStatus reports whether err carries a backend response with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client talks JSON to the analysis backend. It enforces no timeout of its
// own; callers bound requests through their contexts.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tracer:  otel.Tracer("github.com/joelkehle/infringement-console/internal/apiclient"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) DoJSON(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return blob, resp.StatusCode, &StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(blob),
		}
	}
	return blob, resp.StatusCode, nil
}

// call runs one traced, metered request and decodes the response into out
// when out is non-nil.
func (c *Client) call(ctx context.Context, op, method, path string, payload []byte, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	start := time.Now()
	blob, status, err := c.DoJSON(ctx, method, path, payload)
	backendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err == nil && out != nil {
		if err = decodeJSON(blob, out); err != nil {
			err = fmt.Errorf("decode %s response: %w", op, err)
		}
	}

	outcome := outcomeFor(status, err)
	backendRequests.WithLabelValues(op, outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return err
	}
	return nil
}

func outcomeFor(status int, err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "status_" + strconv.Itoa(se.Status)
	case status > 0:
		return "decode"
	default:
		return "transport"
	}
}

func decodeJSON(blob []byte, out any) error {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errEmptyBody
	}
	return json.Unmarshal(trimmed, out)
}

// errorMessage pulls a human-readable message out of an error body. The
// backend answers with {"error": "..."} for lookups that miss and
// {"detail": ...} for framework-level failures.
func errorMessage(blob []byte) string {
	var env struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	if json.Unmarshal(blob, &env) == nil {
		for _, v := range []any{env.Error, env.Detail} {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	msg := strings.TrimSpace(string(blob))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

var suggestQuery = url.Values{
	"limit":     {strconv.Itoa(SuggestLimit)},
	"threshold": {strconv.Itoa(SuggestThreshold)},
}.Encode()

func (c *Client) SuggestPatents(ctx context.Context, text string) ([]analysis.PatentSuggestion, error) {
	path := "/api/search/patent/suggest/" + url.PathEscape(text) + "?" + suggestQuery
	var out []analysis.PatentSuggestion
	if err := c.call(ctx, "suggest_patent", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SuggestCompanies(ctx context.Context, text string) ([]analysis.CompanySuggestion, error) {
	path := "/api/search/company/suggest/" + url.PathEscape(text) + "?" + suggestQuery
	var out []analysis.CompanySuggestion
	if err := c.call(ctx, "suggest_company", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeCompany submits one analysis request. Every failure, including a
// body that does not decode, wraps ErrAnalysisFailed.
func (c *Client) AnalyzeCompany(ctx context.Context, patentID, companyName string) (*analysis.AnalysisResult, error) {
	payload, err := json.Marshal(map[string]string{
		"patent_id":    patentID,
		"company_name": companyName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	var out analysis.AnalysisResult
	if err := c.call(ctx, "analyze", http.MethodPost, "/api/analysis/company", payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return &out, nil
}

func (c *Client) SaveReport(ctx context.Context, report analysis.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.call(ctx, "save_report", http.MethodPost, "/api/reports", payload, nil)
}

func (c *Client) ListReports(ctx context.Context) ([]analysis.Report, error) {
	var out []analysis.Report
	if err := c.call(ctx, "list_reports", http.MethodGet, "/api/reports", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []analysis.Report{}
	}
	return out, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*analysis.Report, error) {
	var out analysis.Report
	if err := c.call(ctx, "get_report", http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
