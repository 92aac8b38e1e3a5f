package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexmind-ai/lexmind/pkg/blob"
	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/models"
)

func registerClauseTools(r *Registry, b Backends) error {
	if err := r.Register(Tool{
		Name: "extract_clauses",
		Description: "Segment a contract's text into typed clauses and save them, " +
			"replacing any previously extracted set. Returns the saved clauses.",
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
			if contract.FileURI == "" {
				return nil, fmt.Errorf("contract %q has no uploaded file", id)
			}

			data, err := b.Blobs.Get(ctx, contract.FileURI)
			if err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					return nil, fmt.Errorf("contract file %q is missing from storage", contract.FileURI)
				}
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}
			text, err := b.Extractor.ExtractText(ctx, contract.FileURI, data)
			if err != nil {
				return nil, fmt.Errorf("failed to extract contract text: %w", err)
			}

			segments := docs.SegmentClauses(text)
			reqs := make([]models.CreateClauseRequest, 0, len(segments))
			for _, seg := range segments {
				reqs = append(reqs, models.CreateClauseRequest{
					ContractID: id,
					Index:      seg.Index,
					Type:       seg.Type,
					Text:       seg.Text,
				})
			}
			clauses, err := b.Store.SaveClauses(ctx, id, reqs)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			return map[string]any{
				"contract_id": id,
				"clauses":     clauses,
				"count":       len(clauses),
			}, nil
		},
	}); err != nil {
		return err
	}

	if err := r.Register(Tool{
		Name:        "get_clauses_by_type",
		Description: "List a contract's extracted clauses, optionally filtered by clause type.",
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_id": map[string]any{"type": "string"},
				"type": map[string]any{
					"type":        "string",
					"description": "Clause type filter, e.g. indemnification, liability, termination.",
				},
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
			if want := stringArg(args, "type"); want != "" {
				filtered := clauses[:0]
				for _, cl := range clauses {
					if cl.Type == want {
						filtered = append(filtered, cl)
					}
				}
				clauses = filtered
			}
			return map[string]any{
				"contract_id": id,
				"clauses":     clauses,
				"count":       len(clauses),
			}, nil
		},
	}); err != nil {
		return err
	}

	return r.Register(Tool{
		Name: "save_clauses",
		Description: "Save a corrected clause set for a contract, replacing the " +
			"stored set. Use after refining the deterministic extraction.",
		SideEffecting: true,
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"contract_id": map[string]any{"type": "string"},
				"clauses": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"index":      map[string]any{"type": "integer", "minimum": 0},
							"type":       map[string]any{"type": "string"},
							"text":       map[string]any{"type": "string"},
							"risk_score": map[string]any{"type": "number", "minimum": 0, "maximum": 100},
							"notes":      map[string]any{"type": "string"},
						},
						"required":             []string{"index", "type", "text"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []string{"clauses"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			id, err := contractIDArg(args, tc)
			if err != nil {
				return nil, err
			}

			items := listArg(args, "clauses")
			reqs := make([]models.CreateClauseRequest, 0, len(items))
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					continue
				}
				req := models.CreateClauseRequest{
					ContractID: id,
					Index:      intArg(obj, "index", 0),
					Type:       stringArg(obj, "type"),
					Text:       stringArg(obj, "text"),
					Notes:      stringArg(obj, "notes"),
				}
				if score, ok := obj["risk_score"].(float64); ok {
					req.RiskScore = &score
				}
				reqs = append(reqs, req)
			}

			clauses, err := b.Store.SaveClauses(ctx, id, reqs)
			if err != nil {
				return nil, storeFailure(err, "contract", id)
			}
			return map[string]any{
				"contract_id": id,
				"count":       len(clauses),
			}, nil
		},
	})
}
