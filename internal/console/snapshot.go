package console

import "github.com/joelkehle/infringement-console/internal/analysis"

// ResultView is an analysis result with its display tier.
type ResultView struct {
	analysis.AnalysisResult
	RiskTier analysis.RiskTier `json:"risk_tier"`
}

// AnalysisSnapshot is everything the analysis page renders. It shares no
// memory with the view.
type AnalysisSnapshot struct {
	State              State                        `json:"state"`
	PatentID           string                       `json:"patent_id"`
	PatentTitle        string                       `json:"patent_title"`
	CompanyName        string                       `json:"company_name"`
	CanAnalyze         bool                         `json:"can_analyze"`
	Result             *ResultView                  `json:"result,omitempty"`
	Failure            string                       `json:"failure,omitempty"`
	Saving             bool                         `json:"saving"`
	Saved              bool                         `json:"saved"`
	PatentSuggestions  []analysis.PatentSuggestion  `json:"patent_suggestions"`
	CompanySuggestions []analysis.CompanySuggestion `json:"company_suggestions"`
	Notice             *Notice                      `json:"notice,omitempty"`
}

func (v *AnalysisView) Snapshot() AnalysisSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := AnalysisSnapshot{
		State:              v.state,
		PatentID:           v.patentID,
		PatentTitle:        v.patentTitle,
		CompanyName:        v.companyName,
		CanAnalyze:         v.canAnalyzeLocked() && v.state != StateLoading && !v.closed,
		Failure:            v.failure,
		Saving:             v.saving != nil,
		PatentSuggestions:  v.patents.Items(),
		CompanySuggestions: v.companies.Items(),
	}
	if v.result != nil {
		rv := &ResultView{
			AnalysisResult: *v.result,
			RiskTier:       analysis.ClassifyRisk(v.result.OverallRiskAssessment),
		}
		rv.TopInfringingProducts = cloneFindings(v.result.TopInfringingProducts)
		snap.Result = rv
		snap.Saved = v.saved.Has(v.result.Key())
	}
	if v.notice != nil {
		if v.cfg.Clock().Before(v.notice.ExpiresAt) {
			n := *v.notice
			snap.Notice = &n
		} else {
			v.notice = nil
		}
	}
	return snap
}

func cloneFindings(in []analysis.ProductFinding) []analysis.ProductFinding {
	out := make([]analysis.ProductFinding, len(in))
	for i, p := range in {
		p.RelevantClaims = append([]string(nil), p.RelevantClaims...)
		p.SpecificFeatures = append([]string(nil), p.SpecificFeatures...)
		out[i] = p
	}
	return out
}
