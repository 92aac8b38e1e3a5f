// Package compliance maps contracts and their clauses against embedded
// regulation rule sets (GDPR, HIPAA, CCPA, SOX). Rules are reference data
// loaded once at startup; checks are deterministic keyword matches that give
// the compliance agent a factual baseline to reason over.
package compliance

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

//go:embed rules
var rulesFS embed.FS

type ruleFile struct {
	Regulation models.Regulation       `yaml:"regulation"`
	Rules      []models.ComplianceRule `yaml:"rules"`
}

// Catalog holds the loaded rule sets.
type Catalog struct {
	rules map[models.Regulation][]models.ComplianceRule
}

// LoadCatalog parses the embedded rule sets. Called once at startup; a parse
// failure is a build defect.
func LoadCatalog() (*Catalog, error) {
	entries, err := rulesFS.ReadDir("rules")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded rules: %w", err)
	}

	catalog := &Catalog{rules: make(map[models.Regulation][]models.ComplianceRule)}
	for _, entry := range entries {
		data, err := rulesFS.ReadFile("rules/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		var file ruleFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		for i := range file.Rules {
			file.Rules[i].Regulation = file.Regulation
		}
		catalog.rules[file.Regulation] = file.Rules
	}
	return catalog, nil
}

// Rules returns the rule set for one regulation.
func (c *Catalog) Rules(reg models.Regulation) ([]models.ComplianceRule, error) {
	rules, ok := c.rules[reg]
	if !ok {
		return nil, fmt.Errorf("unknown regulation %q", reg)
	}
	return rules, nil
}

// Regulations lists the loaded regulations.
func (c *Catalog) Regulations() []models.Regulation {
	out := make([]models.Regulation, 0, len(c.rules))
	for _, reg := range models.Regulations() {
		if _, ok := c.rules[reg]; ok {
			out = append(out, reg)
		}
	}
	return out
}

// contract types and clause types that trigger each regulation's review.
var applicabilitySignals = map[models.Regulation]struct {
	contractTypes []string
	clauseTypes   []string
	phrases       []string
}{
	models.RegulationGDPR: {
		contractTypes: []string{"saas", "dpa", "msa"},
		clauseTypes:   []string{"data_handling", "confidentiality"},
		phrases:       []string{"personal data", "data subject", "eea", "european"},
	},
	models.RegulationHIPAA: {
		contractTypes: []string{"baa"},
		clauseTypes:   []string{"data_handling"},
		phrases:       []string{"health information", "phi", "patient", "medical"},
	},
	models.RegulationCCPA: {
		contractTypes: []string{"saas", "msa"},
		clauseTypes:   []string{"data_handling"},
		phrases:       []string{"personal information", "consumer", "california"},
	},
	models.RegulationSOX: {
		contractTypes: []string{"audit"},
		clauseTypes:   []string{},
		phrases:       []string{"financial report", "audit", "internal control", "accounting"},
	},
}

// ApplicableRegulations decides which loaded regulations plausibly apply to
// a contract, from its type and the text of its clauses.
func (c *Catalog) ApplicableRegulations(contractType string, clauses []*models.Clause) []models.Regulation {
	ctype := strings.ToLower(strings.TrimSpace(contractType))

	var corpus strings.Builder
	clauseTypes := make(map[string]bool)
	for _, cl := range clauses {
		clauseTypes[strings.ToLower(cl.Type)] = true
		corpus.WriteString(strings.ToLower(cl.Text))
		corpus.WriteByte(' ')
	}
	text := corpus.String()

	var out []models.Regulation
	for _, reg := range c.Regulations() {
		sig := applicabilitySignals[reg]
		matched := false
		for _, t := range sig.contractTypes {
			if t == ctype {
				matched = true
				break
			}
		}
		if !matched {
			for _, t := range sig.clauseTypes {
				if clauseTypes[t] {
					matched = true
					break
				}
			}
		}
		if !matched {
			for _, p := range sig.phrases {
				if strings.Contains(text, p) {
					matched = true
					break
				}
			}
		}
		if matched {
			out = append(out, reg)
		}
	}
	return out
}
