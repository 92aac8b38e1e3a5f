package models

// Regulation is a supported regulatory framework.
type Regulation string

const (
	RegulationGDPR  Regulation = "GDPR"
	RegulationHIPAA Regulation = "HIPAA"
	RegulationCCPA  Regulation = "CCPA"
	RegulationSOX   Regulation = "SOX"
)

// Regulations lists all supported frameworks.
func Regulations() []Regulation {
	return []Regulation{RegulationGDPR, RegulationHIPAA, RegulationCCPA, RegulationSOX}
}

// RuleSeverity ranks how serious a compliance rule violation is.
type RuleSeverity string

const (
	SeverityLow      RuleSeverity = "low"
	SeverityMedium   RuleSeverity = "medium"
	SeverityHigh     RuleSeverity = "high"
	SeverityCritical RuleSeverity = "critical"
)

// ComplianceRule is one requirement from a regulatory framework.
// Read-mostly reference data, loaded from the embedded rule sets.
type ComplianceRule struct {
	Regulation Regulation   `json:"regulation" yaml:"regulation"`
	RuleID     string       `json:"rule_id" yaml:"rule_id"`
	Text       string       `json:"text" yaml:"text"`
	Category   string       `json:"category" yaml:"category"`
	Severity   RuleSeverity `json:"severity" yaml:"severity"`
}
