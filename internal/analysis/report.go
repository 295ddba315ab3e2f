package analysis

import "time"

// NewReport snapshots result into a Report ready to be saved. The abstract is
// left empty; only the backend may fill it.
func NewReport(result *AnalysisResult, patentTitle, id string, createdAt time.Time) Report {
	return Report{
		ID:                    id,
		CreatedAt:             FormatTimestamp(createdAt),
		PatentID:              result.PatentID,
		PatentTitle:           patentTitle,
		PatentAbstract:        "",
		CompanyName:           result.CompanyName,
		TopInfringingProducts: copyFindings(result.TopInfringingProducts),
		OverallRiskAssessment: result.OverallRiskAssessment,
	}
}

func copyFindings(in []ProductFinding) []ProductFinding {
	out := make([]ProductFinding, len(in))
	for i, p := range in {
		p.RelevantClaims = copyStrings(p.RelevantClaims)
		p.SpecificFeatures = copyStrings(p.SpecificFeatures)
		out[i] = p
	}
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
