package console

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/reportstore"
	"github.com/joelkehle/infringement-console/internal/suggest"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateResult  State = "result"
	StateFailed  State = "failed"
)

const (
	DefaultNoticeTTL = 6 * time.Second

	MsgAnalysisFailed = "Analysis failed. Please try again."
	MsgSaved          = "Report saved successfully!"
	MsgAlreadySaved   = "This analysis has already been saved"
	MsgSaveFailed     = "Failed to save report"
)

var (
	ErrMissingInput     = errors.New("patent id and company name are required")
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	ErrNoResult         = errors.New("no analysis result to save")
	ErrSaveInFlight     = errors.New("save already in progress")
	ErrClosed           = errors.New("view closed")
)

type Analyzer interface {
	AnalyzeCompany(ctx context.Context, patentID, companyName string) (*analysis.AnalysisResult, error)
}

type ReportSaver interface {
	Save(ctx context.Context, saved *reportstore.SavedSet, report analysis.Report) (reportstore.Outcome, error)
}

type Suggester interface {
	Patents(ctx context.Context, text string) ([]analysis.PatentSuggestion, bool)
	Companies(ctx context.Context, text string) ([]analysis.CompanySuggestion, bool)
}

type Config struct {
	Analyzer  Analyzer
	Saver     ReportSaver
	Suggester Suggester
	NoticeTTL time.Duration
	Clock     func() time.Time
	NewID     func() string
}

// Notice is a transient message shown after a save attempt.
type Notice struct {
	Kind      analysis.RiskTier `json:"kind"`
	Message   string            `json:"message"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// task is one in-flight request. A response is applied only while its task
// is still the current one for that slot.
type task struct {
	id     uint64
	cancel context.CancelFunc
}

// AnalysisView is the controller behind the analysis page: input fields,
// suggestions, the request state machine, the current result and saving.
type AnalysisView struct {
	cfg   Config
	saved *reportstore.SavedSet

	patents   suggest.Field[analysis.PatentSuggestion]
	companies suggest.Field[analysis.CompanySuggestion]

	mu          sync.Mutex
	state       State
	patentID    string
	patentTitle string
	companyName string
	result      *analysis.AnalysisResult
	failure     string
	analyzing   *task
	saving      *task
	notice      *Notice
	lastTask    uint64
	closed      bool
}

func NewAnalysisView(cfg Config) *AnalysisView {
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = DefaultNoticeTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &AnalysisView{
		cfg:   cfg,
		saved: reportstore.NewSavedSet(),
		state: StateIdle,
	}
}

// SavedSet exposes the session's dedup set.
func (v *AnalysisView) SavedSet() *reportstore.SavedSet {
	return v.saved
}

func (v *AnalysisView) newTask(ctx context.Context) (*task, context.Context) {
	v.lastTask++
	tctx, cancel := context.WithCancel(ctx)
	return &task{id: v.lastTask, cancel: cancel}, tctx
}

// Analyze runs one analysis for the current inputs and blocks until it
// settles. Backend failures are reported through the Failed state, not the
// returned error.
func (v *AnalysisView) Analyze(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if !v.canAnalyzeLocked() {
		v.mu.Unlock()
		return ErrMissingInput
	}
	if v.state == StateLoading {
		v.mu.Unlock()
		return ErrAnalysisInFlight
	}
	// A pending save belongs to the result being replaced.
	v.saving = nil
	v.state = StateLoading
	v.result = nil
	v.failure = ""
	t, tctx := v.newTask(ctx)
	v.analyzing = t
	patentID, companyName := v.patentID, v.companyName
	v.mu.Unlock()
	defer t.cancel()

	res, err := v.cfg.Analyzer.AnalyzeCompany(tctx, patentID, companyName)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.analyzing != t {
		return nil
	}
	v.analyzing = nil
	if err != nil {
		log.Printf("analysis failed patent_id=%s company=%q err=%v", patentID, companyName, err)
		v.state = StateFailed
		v.failure = MsgAnalysisFailed
		return nil
	}
	v.state = StateResult
	v.result = res
	return nil
}

// Save snapshots the current result into a new report and saves it once per
// (patent, company) pair for this session.
func (v *AnalysisView) Save(ctx context.Context) (reportstore.Outcome, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return "", ErrClosed
	}
	if v.state != StateResult || v.result == nil {
		v.mu.Unlock()
		return "", ErrNoResult
	}
	if v.saving != nil {
		v.mu.Unlock()
		return "", ErrSaveInFlight
	}
	report := analysis.NewReport(v.result, v.patentTitle, v.cfg.NewID(), v.cfg.Clock())
	t, tctx := v.newTask(ctx)
	v.saving = t
	v.mu.Unlock()
	defer t.cancel()

	outcome, err := v.cfg.Saver.Save(tctx, v.saved, report)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saving != t {
		return outcome, err
	}
	v.saving = nil
	switch outcome {
	case reportstore.OutcomeSaved:
		v.postLocked(analysis.TierSuccess, MsgSaved)
	case reportstore.OutcomeAlreadySaved:
		v.postLocked(analysis.TierWarning, MsgAlreadySaved)
	default:
		outcome = reportstore.OutcomeFailed
		v.postLocked(analysis.TierError, MsgSaveFailed)
	}
	return outcome, err
}

func (v *AnalysisView) postLocked(kind analysis.RiskTier, msg string) {
	v.notice = &Notice{
		Kind:      kind,
		Message:   msg,
		ExpiresAt: v.cfg.Clock().Add(v.cfg.NoticeTTL),
	}
}

// DismissNotice clears the active notice before it expires.
func (v *AnalysisView) DismissNotice() {
	v.mu.Lock()
	v.notice = nil
	v.mu.Unlock()
}

func (v *AnalysisView) SetPatentID(text string) {
	v.mu.Lock()
	v.patentID = text
	v.mu.Unlock()
}

// SetPatentTitle updates the title input and refreshes patent suggestions.
func (v *AnalysisView) SetPatentTitle(ctx context.Context, text string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.patentTitle = text
	v.mu.Unlock()

	seq := v.patents.Begin()
	if items, ok := v.cfg.Suggester.Patents(ctx, text); ok {
		v.patents.Apply(seq, items)
	}
}

// SetCompanyName updates the company input and refreshes company suggestions.
func (v *AnalysisView) SetCompanyName(ctx context.Context, text string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.companyName = text
	v.mu.Unlock()

	seq := v.companies.Begin()
	if items, ok := v.cfg.Suggester.Companies(ctx, text); ok {
		v.companies.Apply(seq, items)
	}
}

// SelectPatent fills both patent inputs from a suggestion.
func (v *AnalysisView) SelectPatent(s analysis.PatentSuggestion) {
	v.mu.Lock()
	v.patentID = s.ID
	v.patentTitle = s.Title
	v.mu.Unlock()
	v.patents.Clear()
}

func (v *AnalysisView) SelectCompany(s analysis.CompanySuggestion) {
	v.mu.Lock()
	v.companyName = s.Name
	v.mu.Unlock()
	v.companies.Clear()
}

func (v *AnalysisView) canAnalyzeLocked() bool {
	return strings.TrimSpace(v.patentID) != "" && strings.TrimSpace(v.companyName) != ""
}

// Close invalidates and cancels every in-flight task. Late responses are
// dropped and further actions return ErrClosed.
func (v *AnalysisView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for _, t := range []*task{v.analyzing, v.saving} {
		if t != nil {
			t.cancel()
		}
	}
	v.analyzing = nil
	v.saving = nil
	v.patents.Clear()
	v.companies.Clear()
}

// Busy reports whether an analysis or a save is in flight.
func (v *AnalysisView) Busy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.analyzing != nil || v.saving != nil
}

// Closed reports whether Close has been called.
func (v *AnalysisView) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
