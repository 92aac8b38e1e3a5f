// Package risk scores contract clauses on a 0-100 scale and aggregates
// clause scores into a contract-level rating. Scores produced here are the
// deterministic baseline; agents refine them with model judgment.
package risk

import (
	"sort"
	"strings"
)

// Band is a human-readable risk tier.
type Band string

const (
	BandLow      Band = "Low"
	BandMedium   Band = "Medium"
	BandHigh     Band = "High"
	BandCritical Band = "Critical"
)

// BandFor maps a 0-100 score onto its band.
func BandFor(score float64) Band {
	switch {
	case score <= 25:
		return BandLow
	case score <= 50:
		return BandMedium
	case score <= 75:
		return BandHigh
	default:
		return BandCritical
	}
}

// Categories is the fixed list of risk categories tracked per contract.
var Categories = []string{
	"liability",
	"termination",
	"intellectual_property",
	"data_handling",
	"dispute_resolution",
	"indemnification",
	"confidentiality",
	"force_majeure",
}

// clauseTypeBase is the starting score per clause type. Types absent here
// start at the neutral baseline.
var clauseTypeBase = map[string]float64{
	"indemnification":       55,
	"liability":             50,
	"limitation_liability":  50,
	"termination":           40,
	"data_handling":         45,
	"intellectual_property": 40,
	"dispute_resolution":    35,
	"confidentiality":       30,
	"force_majeure":         25,
	"payment":               25,
	"term":                  15,
	"parties":               5,
	"definitions":           5,
}

const neutralBase = 20

// riskSignal is a phrase that shifts a clause's score when present.
type riskSignal struct {
	phrase string
	delta  float64
	note   string
}

var signals = []riskSignal{
	{"unlimited liability", 30, "unlimited liability exposure"},
	{"sole discretion", 15, "unilateral discretion granted"},
	{"without notice", 15, "action permitted without notice"},
	{"without cause", 10, "termination without cause"},
	{"irrevocable", 12, "irrevocable grant"},
	{"perpetual", 10, "perpetual obligation"},
	{"indemnify and hold harmless", 12, "broad indemnification"},
	{"consequential damages", 10, "consequential damages in scope"},
	{"liquidated damages", 10, "liquidated damages present"},
	{"exclusive remedy", 8, "remedies limited"},
	{"waive", 8, "rights waiver"},
	{"non-compete", 10, "non-compete restriction"},
	{"automatic renewal", 8, "automatic renewal"},
	{"personal data", 8, "personal data processing"},
	{"third party", 5, "third-party involvement"},
	{"as is", 8, "as-is disclaimer"},
	{"best efforts", -5, "soft obligation standard"},
	{"mutual", -8, "mutual obligation"},
	{"reasonable", -5, "reasonableness qualifier"},
	{"written consent", -5, "consent safeguard"},
	{"cure period", -8, "cure period present"},
}

// ClauseScore is the deterministic score plus the signals that produced it.
type ClauseScore struct {
	Score float64
	Notes []string
}

// ScoreClause rates one clause from its type and text.
func ScoreClause(clauseType, text string) ClauseScore {
	base, ok := clauseTypeBase[normalizeType(clauseType)]
	if !ok {
		base = neutralBase
	}

	score := base
	var notes []string
	lower := strings.ToLower(text)
	for _, sig := range signals {
		if strings.Contains(lower, sig.phrase) {
			score += sig.delta
			notes = append(notes, sig.note)
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return ClauseScore{Score: score, Notes: notes}
}

// OverallScore aggregates clause scores into a contract score. The top
// quartile dominates: one critical clause should not be averaged away by
// twenty boilerplate ones.
func OverallScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	top := len(sorted) / 4
	if top == 0 {
		top = 1
	}
	var topSum float64
	for _, s := range sorted[:top] {
		topSum += s
	}
	topMean := topSum / float64(top)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	mean := sum / float64(len(sorted))

	score := 0.7*topMean + 0.3*mean
	if score > 100 {
		score = 100
	}
	return score
}

func normalizeType(clauseType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(clauseType)), " ", "_")
}
