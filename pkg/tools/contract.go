package tools

import (
	"context"

	"github.com/lexmind-ai/lexmind/pkg/models"
)

func registerContractTools(r *Registry, b Backends) error {
	if err := r.Register(Tool{
		Name:        "get_contract_by_id",
		Description: "Fetch a contract's metadata and clause count by its ID. Omit contract_id to use the contract attached to this session.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_id": map[string]any{
					"type":        "string",
					"description": "Contract ID. Defaults to the session's active contract.",
				},
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
				"contract":     contract,
				"party_names":  models.PartyNames(contract.Parties),
				"clause_count": len(clauses),
			}, nil
		},
	}); err != nil {
		return err
	}

	if err := r.Register(Tool{
		Name:        "search_contracts",
		Description: "Search stored contracts by title text and/or contract type.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Substring matched against contract titles.",
				},
				"contract_type": map[string]any{
					"type":        "string",
					"description": "Exact contract type, e.g. nda, msa, employment.",
				},
				"limit": map[string]any{
					"type":    "integer",
					"minimum": 1,
					"maximum": 50,
				},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			contracts, err := b.Store.SearchContracts(ctx, models.ContractFilters{
				Query:        stringArg(args, "query"),
				ContractType: stringArg(args, "contract_type"),
				Limit:        intArg(args, "limit", 20),
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"contracts": contracts,
				"count":     len(contracts),
			}, nil
		},
	}); err != nil {
		return err
	}

	return r.Register(Tool{
		Name:          "save_contract",
		Description:   "Update a contract's extracted metadata: title, type, and parties.",
		SideEffecting: true,
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_id": map[string]any{"type": "string"},
				"title":       map[string]any{"type": "string"},
				"contract_type": map[string]any{
					"type":        "string",
					"description": "Normalized contract type, e.g. nda, msa, employment, license, saas, lease.",
				},
				"parties": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string"},
							"role": map[string]any{"type": "string"},
						},
						"required":             []string{"name"},
						"additionalProperties": false,
					},
				},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			id, err := contractIDArg(args, tc)
			if err != nil {
				return nil, err
			}

			var req models.UpdateContractRequest
			if title := stringArg(args, "title"); title != "" {
				req.Title = &title
			}
			if ctype := stringArg(args, "contract_type"); ctype != "" {
				req.ContractType = &ctype
			}
			if raw, ok := args["parties"]; ok {
				req.Parties = parseParties(raw)
			}

			contract, err := b.Store.UpdateContract(ctx, id, req)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			return map[string]any{"contract": contract}, nil
		},
	})
}

// parseParties converts schema-validated party objects into Party records.
func parseParties(raw any) []models.Party {
	items, _ := raw.([]any)
	parties := make([]models.Party, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["name"].(string)
		if name == "" {
			continue
		}
		role, _ := obj["role"].(string)
		parties = append(parties, models.Party{Name: name, Role: role})
	}
	return parties
}
