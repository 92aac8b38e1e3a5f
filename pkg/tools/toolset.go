package tools

import (
	"fmt"

	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/compliance"
	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/store"
)

// Backends are the services tool handlers operate on.
type Backends struct {
	Store      store.Store
	Blobs      blob.Store
	Compliance *compliance.Catalog
	Extractor  *docs.Extractor
}

// Tool groups. Agent definitions compose their tool subsets from these.
var (
	GroupContract   = []string{"get_contract_by_id", "search_contracts", "save_contract"}
	GroupClause     = []string{"extract_clauses", "get_clauses_by_type", "save_clauses"}
	GroupCompliance = []string{"check_compliance", "get_compliance_rules", "get_applicable_regulations"}
	GroupRisk       = []string{"calculate_clause_risk", "calculate_overall_risk", "get_risk_benchmarks"}
	GroupDocument   = []string{"generate_document", "list_documents"}
	GroupLogging    = []string{"log_thought"}
)

// RegisterAll wires every tool group into the registry.
func RegisterAll(r *Registry, b Backends) error {
	for _, register := range []func(*Registry, Backends) error{
		registerContractTools,
		registerClauseTools,
		registerComplianceTools,
		registerRiskTools,
		registerDocumentTools,
		registerLoggingTools,
	} {
		if err := register(r, b); err != nil {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────
// Argument accessors. Arguments arrive as decoded JSON, already
// schema-validated, so these only normalize types.
// ─────────────────────────────────────────────────────────────

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func objectArg(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func listArg(args map[string]any, key string) []any {
	l, _ := args[key].([]any)
	return l
}

// contractIDArg resolves the contract a tool operates on: an explicit
// contract_id argument wins, otherwise the session's active contract.
func contractIDArg(args map[string]any, tc ToolContext) (string, error) {
	if id := stringArg(args, "contract_id"); id != "" {
		return id, nil
	}
	if tc.ActiveContractID != "" {
		return tc.ActiveContractID, nil
	}
	return "", fmt.Errorf("no contract_id given and no contract attached to this session")
}
