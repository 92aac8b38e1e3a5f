package tools

import (
	"context"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

// regulationEnum is the schema enum for the regulation argument.
func regulationEnum() []string {
	regs := models.Regulations()
	out := make([]string, 0, len(regs))
	for _, reg := range regs {
		out = append(out, string(reg))
	}
	return out
}

func registerComplianceTools(r *Registry, b Backends) error {
	if err := r.Register(Tool{
		Name: "check_compliance",
		Description: "Check a contract's extracted clauses against one regulation and " +
			"record the resulting compliance status on the contract.",
		SideEffecting: true,
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"regulation":  map[string]any{"type": "string", "enum": regulationEnum()},
				"contract_id": map[string]any{"type": "string"},
			},
			"required":             []string{"regulation"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			id, err := contractIDArg(args, tc)
			if err != nil {
				return nil, err
			}
			clauses, err := b.Store.ListClauses(ctx, id)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}

			report, err := b.Compliance.Check(models.Regulation(stringArg(args, "regulation")), clauses)
			if err != nil {
				return nil, err
			}

			status := report.Status
			if _, err := b.Store.UpdateContract(ctx, id, models.UpdateContractRequest{
				ComplianceStatus: &status,
			}); err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			return map[string]any{
				"contract_id": id,
				"report":      report,
			}, nil
		},
	}); err != nil {
		return err
	}

	if err := r.Register(Tool{
		Name:        "get_compliance_rules",
		Description: "List the requirements of one regulatory framework.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"regulation": map[string]any{"type": "string", "enum": regulationEnum()},
			},
			"required":             []string{"regulation"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			reg := models.Regulation(stringArg(args, "regulation"))
			rules, err := b.Compliance.Rules(reg)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"regulation": reg,
				"rules":      rules,
				"count":      len(rules),
			}, nil
		},
	}); err != nil {
		return err
	}

	return r.Register(Tool{
		Name: "get_applicable_regulations",
		Description: "Determine which regulatory frameworks plausibly apply to a " +
			"contract from its type and clause content.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_id": map[string]any{"type": "string"},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			id, err := contractIDArg(args, tc)
			if err != nil {
				return nil, err
			}
			contract, err := b.Store.GetContract(ctx, id)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			clauses, err := b.Store.ListClauses(ctx, id)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"contract_id": id,
				"regulations": b.Compliance.ApplicableRegulations(contract.ContractType, clauses),
			}, nil
		},
	})
}
