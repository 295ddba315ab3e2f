package console

import (
	"context"
	"log"
	"sync"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

type ReportsState string

const (
	ReportsLoading ReportsState = "loading"
	ReportsLoaded  ReportsState = "loaded"
	ReportsFailed  ReportsState = "failed"
)

const MsgFetchFailed = "Failed to fetch reports"

type ReportLister interface {
	FetchAll(ctx context.Context) ([]analysis.Report, error)
}

// ReportsView backs one activation of the saved-reports page. It fetches
// once; a refresh needs a new view.
type ReportsView struct {
	lister ReportLister
	once   sync.Once

	mu      sync.Mutex
	state   ReportsState
	reports []analysis.Report
	failure string
}

func NewReportsView(lister ReportLister) *ReportsView {
	return &ReportsView{lister: lister, state: ReportsLoading}
}

// Load performs the view's single fetch. Calls after the first return
// without touching the network.
func (v *ReportsView) Load(ctx context.Context) {
	v.once.Do(func() {
		reports, err := v.lister.FetchAll(ctx)
		v.mu.Lock()
		defer v.mu.Unlock()
		if err != nil {
			log.Printf("fetch reports failed err=%v", err)
			v.state = ReportsFailed
			v.failure = MsgFetchFailed
			return
		}
		v.state = ReportsLoaded
		v.reports = reports
	})
}

type ReportsSnapshot struct {
	State   ReportsState `json:"state"`
	Reports []ReportRow  `json:"reports"`
	Failure string       `json:"failure,omitempty"`
}

// ReportRow is one saved report as the list renders it.
type ReportRow struct {
	analysis.Report
	DisplayTitle string            `json:"display_title"`
	RiskTier     analysis.RiskTier `json:"risk_tier"`
}

func (v *ReportsView) Snapshot() ReportsSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]ReportRow, len(v.reports))
	for i, r := range v.reports {
		r.TopInfringingProducts = cloneFindings(r.TopInfringingProducts)
		rows[i] = ReportRow{
			Report:       r,
			DisplayTitle: r.DisplayTitle(),
			RiskTier:     analysis.ClassifyRisk(r.OverallRiskAssessment),
		}
	}
	return ReportsSnapshot{State: v.state, Reports: rows, Failure: v.failure}
}
