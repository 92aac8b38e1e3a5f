package tools

import (
	"context"
	"strings"

	"github.com/lexmind-ai/lexmind/pkg/models"
	"github.com/lexmind-ai/lexmind/pkg/risk"
)

func registerRiskTools(r *Registry, b Backends) error {
	if err := r.Register(Tool{
		Name: "calculate_clause_risk",
		Description: "Score every extracted clause of a contract on a 0-100 risk " +
			"scale and persist the scores. Returns per-clause scores, bands, and notes.",
		SideEffecting: true,
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
			clauses, err := b.Store.ListClauses(ctx, id)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}

			reqs := make([]models.CreateClauseRequest, 0, len(clauses))
			scored := make([]map[string]any, 0, len(clauses))
			for _, cl := range clauses {
				cs := risk.ScoreClause(cl.Type, cl.Text)
				score := cs.Score
				reqs = append(reqs, models.CreateClauseRequest{
					ContractID: id,
					Index:      cl.Index,
					Type:       cl.Type,
					Text:       cl.Text,
					RiskScore:  &score,
					Notes:      strings.Join(cs.Notes, "; "),
				})
				scored = append(scored, map[string]any{
					"index": cl.Index,
					"type":  cl.Type,
					"score": score,
					"band":  risk.BandFor(score),
					"notes": cs.Notes,
				})
			}
			if _, err := b.Store.SaveClauses(ctx, id, reqs); err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			return map[string]any{
				"contract_id": id,
				"clauses":     scored,
				"count":       len(scored),
			}, nil
		},
	}); err != nil {
		return err
	}

	if err := r.Register(Tool{
		Name: "calculate_overall_risk",
		Description: "Aggregate a contract's clause scores into an overall 0-100 " +
			"risk score and record it on the contract. Clauses must be scored first.",
		SideEffecting: true,
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

			scores := make([]float64, 0, len(clauses))
			for _, cl := range clauses {
				if cl.RiskScore != nil {
					scores = append(scores, *cl.RiskScore)
					continue
				}
				scores = append(scores, risk.ScoreClause(cl.Type, cl.Text).Score)
			}

			overall := risk.OverallScore(scores)
			if _, err := b.Store.UpdateContract(ctx, id, models.UpdateContractRequest{
				OverallRiskScore: &overall,
			}); err != nil {
				return nil, storeFailure(err, "contract", id)
			}

			benchmark := risk.BenchmarkFor(contract.ContractType)
			return map[string]any{
				"contract_id":   id,
				"overall_score": overall,
				"band":          risk.BandFor(overall),
				"clause_count":  len(scores),
				"benchmark":     benchmark,
				"above_typical": overall > benchmark.TypicalHigh,
			}, nil
		},
	}); err != nil {
		return err
	}

	return r.Register(Tool{
		Name: "get_risk_benchmarks",
		Description: "Get the typical risk score range and watch categories for a " +
			"contract type.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_type": map[string]any{
					"type":        "string",
					"description": "Contract type, e.g. nda, msa, employment, license, saas, lease.",
				},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			return map[string]any{
				"benchmark":  risk.BenchmarkFor(stringArg(args, "contract_type")),
				"categories": risk.Categories,
			}, nil
		},
	})
}
