// Package classifier turns a user message into an ordered agent pipeline.
// A deterministic keyword layer decides first; only genuinely ambiguous
// messages fall through to a one-shot, schema-constrained model call.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lexmind-ai/lexmind/pkg/agent"
	"github.com/lexmind-ai/lexmind/pkg/llm"
)

// QueryType labels what the user is asking for.
type QueryType string

const (
	QueryGreeting         QueryType = "greeting"
	QueryContractAnalysis QueryType = "contract_analysis"
	QueryLegalResearch    QueryType = "legal_research"
	QueryComplianceCheck  QueryType = "compliance_check"
	QueryRiskAssessment   QueryType = "risk_assessment"
	QueryFullAnalysis     QueryType = "full_analysis"
	QueryGeneralQuestion  QueryType = "general_question"
)

// Snapshot is the light session state the classifier may consult.
type Snapshot struct {
	HasActiveContract bool
	ClausesExtracted  bool
	MessageCount      int
	LastAgent         string
}

// Result is a classification: the label, the agent pipeline, and which layer
// decided.
type Result struct {
	QueryType QueryType `json:"query_type"`
	Pipeline  []string  `json:"pipeline"`
	Source    string    `json:"source"` // "rules" or "llm"
}

// Classifier routes user messages. The model client is only used as a
// fallback and may be nil, in which case ambiguous messages go to the
// assistant.
type Classifier struct {
	client llm.Client
}

// New creates a Classifier with the given fallback model client.
func New(client llm.Client) *Classifier {
	return &Classifier{client: client}
}

var greetingPattern = regexp.MustCompile(
	`^\s*(hi|hiya|hello|hey|howdy|yo|good (morning|afternoon|evening)|thanks|thank you|how are you)\b`)

// fullAnalysisKeywords short-circuit to the multi-agent pipeline.
var fullAnalysisKeywords = []string{
	"full analysis", "comprehensive", "complete review", "analyze everything",
	"memo", "full report", "executive brief",
}

// intentKeywords score each query type. Matches are substring checks over the
// lowercased message; the highest-scoring type wins.
var intentKeywords = map[QueryType][]string{
	QueryContractAnalysis: {
		"analyze contract", "parse contract", "extract", "what does the contract say",
		"contract terms", "parties", "effective date", "clauses",
		"obligations", "contract type", "key dates",
		"review contract", "contract details", "read contract", "summarize the contract",
	},
	QueryLegalResearch: {
		"research", "case law", "precedent", "legal meaning", "what is",
		"explain", "jurisdiction", "law says", "statute",
		"court ruling", "legal definition", "is it legal", "legal implications",
	},
	QueryComplianceCheck: {
		"compliance", "gdpr", "hipaa", "ccpa", "sox", "regulation",
		"compliant", "privacy", "data protection", "audit", "framework",
		"requirements",
	},
	QueryRiskAssessment: {
		"risk", "liability", "exposure", "dangerous", "concern",
		"problematic", "unfavorable", "one-sided", "red flags", "evaluate",
	},
}

// Classify returns the pipeline for a user message. It never returns an empty
// pipeline; when everything else fails the assistant handles the message.
func (c *Classifier) Classify(ctx context.Context, message string, snap Snapshot) *Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	if qt, ok := classifyByRules(lower); ok {
		return &Result{QueryType: qt, Pipeline: pipelineFor(qt, snap), Source: "rules"}
	}

	if qt, err := c.classifyByModel(ctx, message); err == nil {
		return &Result{QueryType: qt, Pipeline: pipelineFor(qt, snap), Source: "llm"}
	} else {
		slog.Debug("Model classification unavailable, defaulting to assistant", "error", err)
	}

	return &Result{
		QueryType: QueryGeneralQuestion,
		Pipeline:  pipelineFor(QueryGeneralQuestion, snap),
		Source:    "rules",
	}
}

// classifyByRules is the deterministic layer. ok is false when the message is
// ambiguous and the model layer should decide.
func classifyByRules(lower string) (QueryType, bool) {
	if greetingPattern.MatchString(lower) && len(lower) < 60 {
		return QueryGreeting, true
	}

	for _, kw := range fullAnalysisKeywords {
		if strings.Contains(lower, kw) {
			return QueryFullAnalysis, true
		}
	}

	best, bestScore := QueryGeneralQuestion, 0
	tied := false
	for _, qt := range []QueryType{
		QueryComplianceCheck, QueryRiskAssessment, QueryContractAnalysis, QueryLegalResearch,
	} {
		score := 0
		for _, kw := range intentKeywords[qt] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = qt, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return QueryGeneralQuestion, false
	}
	return best, true
}

// pipelineFor maps a label onto an ordered agent list. The parser is
// prepended to clause-dependent pipelines only when the contract's clauses
// have not been extracted yet.
func pipelineFor(qt QueryType, snap Snapshot) []string {
	withParser := func(rest ...string) []string {
		if !snap.ClausesExtracted {
			return append([]string{agent.ContractParser}, rest...)
		}
		return rest
	}

	switch qt {
	case QueryGreeting, QueryGeneralQuestion:
		return []string{agent.Assistant}
	case QueryContractAnalysis:
		if snap.HasActiveContract {
			return []string{agent.ContractParser}
		}
		return []string{agent.Assistant}
	case QueryLegalResearch:
		return []string{agent.LegalResearch}
	case QueryComplianceCheck:
		if !snap.HasActiveContract {
			return []string{agent.LegalResearch}
		}
		return withParser(agent.ComplianceChecker)
	case QueryRiskAssessment:
		if !snap.HasActiveContract {
			return []string{agent.LegalResearch}
		}
		return withParser(agent.RiskAssessor)
	case QueryFullAnalysis:
		if !snap.HasActiveContract {
			return []string{agent.LegalResearch}
		}
		return withParser(agent.ComplianceChecker, agent.RiskAssessor, agent.LegalMemo)
	default:
		return []string{agent.Assistant}
	}
}

const classifyInstructions = `Classify the user's message for a legal document analysis system. Respond with JSON only, in the form {"query_type": "<label>"} where <label> is exactly one of: greeting, contract_analysis, legal_research, compliance_check, risk_assessment, full_analysis, general_question.`

// classifyByModel is the one-shot constrained fallback.
func (c *Classifier) classifyByModel(ctx context.Context, message string) (QueryType, error) {
	if c.client == nil {
		return "", fmt.Errorf("no fallback model configured")
	}

	temperature := 0.0
	resp, err := c.client.Generate(ctx, &llm.Request{
		System:   classifyInstructions,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: message}},
		Options: llm.Options{
			Temperature:      &temperature,
			MaxOutputTokens:  64,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		QueryType QueryType `json:"query_type"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text)), &parsed); err != nil {
		return "", fmt.Errorf("unparseable classification %q: %w", resp.Text, err)
	}
	switch parsed.QueryType {
	case QueryGreeting, QueryContractAnalysis, QueryLegalResearch,
		QueryComplianceCheck, QueryRiskAssessment, QueryFullAnalysis, QueryGeneralQuestion:
		return parsed.QueryType, nil
	default:
		return "", fmt.Errorf("unknown query type %q", parsed.QueryType)
	}
}
