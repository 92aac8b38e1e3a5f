package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/lexmind-ai/lexmind/pkg/docs"
	"github.com/lexmind-ai/lexmind/pkg/models"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func registerDocumentTools(r *Registry, b Backends) error {
	if err := r.Register(Tool{
		Name: "generate_document",
		Description: "Render content as a .docx document, store it, and attach it " +
			"to the current session. Returns the document record.",
		SideEffecting: true,
		ParameterSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kind": map[string]any{
					"type": "string",
					"enum": []string{
						string(models.DocumentKindMemo),
						string(models.DocumentKindSummary),
						string(models.DocumentKindComplianceReport),
					},
				},
				"title":   map[string]any{"type": "string", "minLength": 1},
				"content": map[string]any{"type": "string", "minLength": 1},
			},
			"required":             []string{"kind", "title", "content"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			if tc.SessionID == "" {
				return nil, fmt.Errorf("no session to attach the document to")
			}
			kind := models.DocumentKind(stringArg(args, "kind"))

			data, err := docs.GenerateDocx(stringArg(args, "title"), stringArg(args, "content"), time.Now())
			if err != nil {
				return nil, err
			}

			key := fmt.Sprintf("documents/%s/%s-%d.docx", tc.SessionID, kind, time.Now().UnixMilli())
			uri, err := b.Blobs.Put(ctx, key, data, docxContentType)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
			}

			doc, err := b.Store.CreateDocument(ctx, models.CreateDocumentRequest{
				SessionID: tc.SessionID,
				Kind:      kind,
				FileURI:   uri,
			})
			if err != nil {
				return nil, storeFailure(err, "session", tc.SessionID)
			}
			return map[string]any{"document": doc}, nil
		},
	}); err != nil {
		return err
	}

	return r.Register(Tool{
		Name:        "list_documents",
		Description: "List the documents generated during the current session.",
		ParameterSchema: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any, tc ToolContext) (map[string]any, error) {
			documents, err := b.Store.ListDocuments(ctx, tc.SessionID)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"documents": documents,
				"count":     len(documents),
			}, nil
		},
	})
}
