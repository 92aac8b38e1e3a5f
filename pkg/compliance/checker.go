package compliance

import (
	"strings"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

// Finding is one rule's assessment against a contract.
type Finding struct {
	Rule models.ComplianceRule `json:"rule"`

	// Addressed reports whether any clause appears to cover the rule's
	// concern.
	Addressed bool `json:"addressed"`

	// ClauseIDs are the clauses that triggered the match.
	ClauseIDs []string `json:"clause_ids,omitempty"`
}

// Report is the outcome of checking one regulation against a contract.
type Report struct {
	Regulation models.Regulation       `json:"regulation"`
	Status     models.ComplianceStatus `json:"status"`
	Findings   []Finding               `json:"findings"`
}

// coverage phrases per rule category: a clause addressing the category is
// expected to contain at least one of these.
var categoryPhrases = map[string][]string{
	"data_handling": {
		"personal data", "personal information", "data protection", "data processing",
		"health information", "deletion", "erasure", "breach", "retention", "records",
	},
	"confidentiality": {
		"confidential", "security measures", "encryption", "safeguard", "access control",
	},
	"liability": {
		"liability", "damages", "indemnif",
	},
	"termination": {
		"terminat", "whistleblower",
	},
	"dispute_resolution": {
		"dispute", "arbitration", "governing law", "certif",
	},
}

// Check evaluates every rule of a regulation against the contract's clauses.
// A rule counts as addressed when a clause of the matching category, or any
// clause containing the category's coverage phrases, is present.
func (c *Catalog) Check(reg models.Regulation, clauses []*models.Clause) (*Report, error) {
	rules, err := c.Rules(reg)
	if err != nil {
		return nil, err
	}

	report := &Report{Regulation: reg, Findings: make([]Finding, 0, len(rules))}
	addressed := 0
	for _, rule := range rules {
		finding := Finding{Rule: rule}
		for _, cl := range clauses {
			if clauseAddresses(cl, rule.Category) {
				finding.Addressed = true
				finding.ClauseIDs = append(finding.ClauseIDs, cl.ID)
			}
		}
		if finding.Addressed {
			addressed++
		}
		report.Findings = append(report.Findings, finding)
	}

	switch {
	case len(rules) == 0 || len(clauses) == 0:
		report.Status = models.ComplianceUnknown
	case addressed == len(rules):
		report.Status = models.ComplianceCompliant
	case addressed == 0:
		report.Status = models.ComplianceNonCompliant
	default:
		report.Status = models.CompliancePartial
	}
	return report, nil
}

func clauseAddresses(cl *models.Clause, category string) bool {
	if strings.EqualFold(strings.ReplaceAll(cl.Type, " ", "_"), category) {
		return true
	}
	text := strings.ToLower(cl.Text)
	for _, phrase := range categoryPhrases[category] {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
