package domain

// RiskTier classifies a candidate's potential for harmful side effects.
type RiskTier string

const (
	RiskSafe      RiskTier = "safe"
	RiskCaution   RiskTier = "caution"
	RiskDangerous RiskTier = "dangerous"
)

// RequiresConfirmation reports whether the tier must pass the confirmation gate.
func (t RiskTier) RequiresConfirmation() bool {
	return t == RiskCaution || t == RiskDangerous
}

var riskOrder = map[RiskTier]int{
	RiskSafe:      0,
	RiskCaution:   1,
	RiskDangerous: 2,
}

// MoreSevere reports whether t outranks other. Unknown tiers rank above
// dangerous so that a bad rule file fails toward more confirmation, never less.
func (t RiskTier) MoreSevere(other RiskTier) bool {
	return rank(t) > rank(other)
}

func rank(t RiskTier) int {
	if r, ok := riskOrder[t]; ok {
		return r
	}
	return len(riskOrder)
}

// RiskAssessment aggregates the classifier's verdict for one candidate.
// Derived deterministically from the command text; always attached to
// exactly one candidate.
type RiskAssessment struct {
	Tier         RiskTier
	Reasons      []string
	MatchedRules []string
}
