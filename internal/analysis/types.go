package analysis

import "strings"

// AnalysisResult is one completed analysis run as returned by the backend.
// Product order is the server's ranking and must be preserved.
type AnalysisResult struct {
	AnalysisID            string           `json:"analysis_id"`
	PatentID              string           `json:"patent_id"`
	CompanyName           string           `json:"company_name"`
	AnalysisDate          string           `json:"analysis_date"`
	TopInfringingProducts []ProductFinding `json:"top_infringing_products"`
	OverallRiskAssessment string           `json:"overall_risk_assessment"`
}

type ProductFinding struct {
	ProductName            string   `json:"product_name"`
	InfringementScore      float64  `json:"infringement_score"`
	InfringementLikelihood string   `json:"infringement_likelihood"`
	RelevantClaims         []string `json:"relevant_claims"`
	Explanation            string   `json:"explanation"`
	SpecificFeatures       []string `json:"specific_features"`
}

// Report is a saved snapshot of an analysis. ID and CreatedAt are assigned by
// the client at save time.
type Report struct {
	ID                    string           `json:"id"`
	CreatedAt             string           `json:"created_at"`
	PatentID              string           `json:"patent_id"`
	PatentTitle           string           `json:"patent_title"`
	PatentAbstract        string           `json:"patent_abstract"`
	CompanyName           string           `json:"company_name"`
	TopInfringingProducts []ProductFinding `json:"top_infringing_products"`
	OverallRiskAssessment string           `json:"overall_risk_assessment"`
}

type PatentSuggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type CompanySuggestion struct {
	Name string `json:"name"`
}

// PairKey identifies a report for deduplication. Two reports with the same
// patent and company are the same report regardless of their IDs.
type PairKey struct {
	PatentID    string
	CompanyName string
}

func (r *AnalysisResult) Key() PairKey {
	return PairKey{PatentID: r.PatentID, CompanyName: r.CompanyName}
}

func (r Report) Key() PairKey {
	return PairKey{PatentID: r.PatentID, CompanyName: r.CompanyName}
}

// DisplayTitle is the patent title, or the patent id when no title was captured.
func (r Report) DisplayTitle() string {
	if t := strings.TrimSpace(r.PatentTitle); t != "" {
		return t
	}
	return r.PatentID
}

func (k PairKey) String() string {
	return k.PatentID + " / " + k.CompanyName
}
