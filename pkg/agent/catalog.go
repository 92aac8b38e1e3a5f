// Package agent defines the fixed set of specialist agents and the runner
// that drives one agent through its tool loop to a terminal state.
package agent

import (
	"fmt"
	"sort"

	"github.com/lexmind-ai/lexmind/pkg/tools"
)

// Agent names. These are stable identifiers; they appear in messages,
// thinking logs, and classifier pipelines.
const (
	Assistant         = "ASSISTANT"
	ContractParser    = "CONTRACT_PARSER"
	LegalResearch     = "LEGAL_RESEARCH"
	ComplianceChecker = "COMPLIANCE_CHECKER"
	RiskAssessor      = "RISK_ASSESSOR"
	LegalMemo         = "LEGAL_MEMO"
)

// Definition is one agent's fixed identity: who it is, how it is prompted,
// and which tools it may call.
type Definition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Purpose     string `json:"purpose"`

	// Instructions is the agent's system prompt, before the runtime preamble.
	Instructions string `json:"-"`

	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`

	// GroundedSearch enables web-grounded generation. Grounded agents get
	// the search tool instead of function tools.
	GroundedSearch bool `json:"grounded_search"`

	// Tools is the subset of registry tools this agent may call.
	Tools []string `json:"tools"`

	MaxToolIterations int `json:"max_tool_iterations"`
}

// Catalog holds the agent definitions. Built once at startup; read-only after.
type Catalog struct {
	agents map[string]*Definition
}

// NewCatalog builds the six-agent catalog. maxToolIterations applies to every
// agent; zero means the default of 6.
func NewCatalog(maxToolIterations int) *Catalog {
	if maxToolIterations <= 0 {
		maxToolIterations = 6
	}

	defs := []*Definition{
		{
			Name:            Assistant,
			DisplayName:     "Assistant",
			Purpose:         "General chat, clarifications, and routing help",
			Instructions:    assistantInstructions,
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			Tools:           tools.GroupLogging,
		},
		{
			Name:            ContractParser,
			DisplayName:     "Contract Parser",
			Purpose:         "Extract structure, parties, and clauses from a contract",
			Instructions:    contractParserInstructions,
			Temperature:     0.3,
			MaxOutputTokens: 4096,
			Tools:           concat(tools.GroupContract, tools.GroupClause, tools.GroupLogging),
		},
		{
			Name:            LegalResearch,
			DisplayName:     "Legal Research",
			Purpose:         "Answer legal questions with web citations",
			Instructions:    legalResearchInstructions,
			Temperature:     0.5,
			MaxOutputTokens: 4096,
			GroundedSearch:  true,
			Tools:           tools.GroupLogging,
		},
		{
			Name:            ComplianceChecker,
			DisplayName:     "Compliance Checker",
			Purpose:         "Map contract clauses against regulatory frameworks",
			Instructions:    complianceCheckerInstructions,
			Temperature:     0.3,
			MaxOutputTokens: 4096,
			Tools:           concat(tools.GroupCompliance, tools.GroupClause, tools.GroupLogging),
		},
		{
			Name:            RiskAssessor,
			DisplayName:     "Risk Assessment",
			Purpose:         "Score clauses and aggregate contract risk",
			Instructions:    riskAssessorInstructions,
			Temperature:     0.4,
			MaxOutputTokens: 4096,
			Tools:           concat(tools.GroupRisk, tools.GroupClause, tools.GroupLogging),
		},
		{
			Name:            LegalMemo,
			DisplayName:     "Legal Memo",
			Purpose:         "Synthesize a formal document from prior agent outputs",
			Instructions:    legalMemoInstructions,
			Temperature:     0.5,
			MaxOutputTokens: 8192,
			Tools:           concat(tools.GroupDocument, tools.GroupLogging),
		},
	}

	agents := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		def.MaxToolIterations = maxToolIterations
		agents[def.Name] = def
	}
	return &Catalog{agents: agents}
}

// Get returns the named agent.
func (c *Catalog) Get(name string) (*Definition, error) {
	def, ok := c.agents[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", name)
	}
	return def, nil
}

// Has reports whether the named agent exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.agents[name]
	return ok
}

// List returns all definitions sorted by name.
func (c *Catalog) List() []*Definition {
	out := make([]*Definition, 0, len(c.agents))
	for _, def := range c.agents {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
