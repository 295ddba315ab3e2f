package analysis

import "strings"

// RiskTier is the display category of a free-text risk label.
type RiskTier string

const (
	TierSuccess RiskTier = "success"
	TierWarning RiskTier = "warning"
	TierError   RiskTier = "error"
)

// ClassifyRisk maps a risk label to a tier by substring match. The backend's
// label set is open, so this is a best-effort heuristic: "Low" wins over
// "High", anything else is a warning, and a label such as "Highlight" lands in
// the error tier.
func ClassifyRisk(label string) RiskTier {
	switch {
	case strings.Contains(label, "Low"):
		return TierSuccess
	case strings.Contains(label, "High"):
		return TierError
	default:
		return TierWarning
	}
}
