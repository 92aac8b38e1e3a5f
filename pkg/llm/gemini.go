package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/lexmind-ai/lexmind/pkg/config"
	"github.com/lexmind-ai/lexmind/pkg/models"
)

// Gemini implements Client on google.golang.org/genai. Two backends are
// supported: the Gemini API (API key) and Vertex AI (managed identity).
// Grounded search is only available on Vertex.
type Gemini struct {
	client    *genai.Client
	model     string
	grounding bool
}

// NewGemini creates a client for the configured backend.
//
// When cfg.UseGroundedBackend is set, the Vertex backend is mandatory; any
// other backend is a configuration error. Missing credentials are also
// configuration errors. Nothing degrades silently.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	var clientConfig *genai.ClientConfig

	switch cfg.Backend {
	case "vertex":
		project := os.Getenv(cfg.ProjectEnv)
		location := os.Getenv(cfg.LocationEnv)
		if project == "" {
			return nil, config.NewValidationError("llm.project_env",
				fmt.Sprintf("environment variable %s is empty", cfg.ProjectEnv))
		}
		if location == "" {
			location = "us-central1"
		}
		clientConfig = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  project,
			Location: location,
		}
	case "gemini":
		if cfg.UseGroundedBackend {
			return nil, config.NewValidationError("llm.use_grounded_backend",
				"grounded model access requires the vertex backend")
		}
		apiKey := os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, config.NewValidationError("llm.api_key_env",
				fmt.Sprintf("environment variable %s is empty", cfg.APIKeyEnv))
		}
		clientConfig = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  apiKey,
		}
	default:
		return nil, config.NewValidationError("llm.backend",
			fmt.Sprintf("unknown backend %q", cfg.Backend))
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{
		client:    client,
		model:     cfg.Model,
		grounding: cfg.Backend == "vertex",
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req.Options.GroundedSearch && !g.grounding {
		return nil, fmt.Errorf("%w: grounded search requires the vertex backend", config.ErrConfiguration)
	}

	contents := buildContents(req.Messages)
	genConfig := buildGenerateConfig(req)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return parseResponse(resp)
}

func (g *Gemini) ContinueWithToolResults(ctx context.Context, req *Request, results []ToolResult) (*Request, *Response, error) {
	next := req.WithToolResults(results)
	resp, err := g.Generate(ctx, next)
	if err != nil {
		return nil, nil, err
	}
	return next, resp, nil
}

func (g *Gemini) Close() error { return nil }

// buildContents converts the transcript to genai contents. Tool results ride
// in user-role contents as function responses, matching the Gemini API
// conversation shape.
func buildContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "assistant":
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case "tool":
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.ToolCallID,
						Name:     msg.ToolName,
						Response: msg.ToolResponse,
					},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	return contents
}

func buildGenerateConfig(req *Request) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{}

	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	opts := req.Options
	if opts.Temperature != nil {
		genConfig.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		genConfig.TopP = genai.Ptr(float32(*opts.TopP))
	}
	if opts.TopK != nil {
		genConfig.TopK = genai.Ptr(float32(*opts.TopK))
	}
	if opts.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if opts.ResponseMIMEType != "" {
		genConfig.ResponseMIMEType = opts.ResponseMIMEType
	}

	if opts.GroundedSearch {
		genConfig.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if len(req.Tools) > 0 {
		genConfig.Tools = buildTools(req.Tools)
	}

	return genConfig
}

func buildTools(tools []ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGenaiSchema(t.ParametersSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGenaiSchema converts a JSON Schema document to the genai schema type.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}
	return s
}

func parseResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}
	candidate := resp.Candidates[0]

	out := &Response{FinishReason: mapFinishReason(candidate.FinishReason)}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = uuid.New().String()
				}
				out.ToolRequests = append(out.ToolRequests, ToolRequest{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
		out.Text = text.String()
	}

	out.Citations = extractCitations(candidate.GroundingMetadata)

	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// extractCitations flattens grounding metadata into citations. Each web chunk
// becomes one citation; the first support segment referencing a chunk supplies
// its text range.
func extractCitations(meta *genai.GroundingMetadata) []models.Citation {
	if meta == nil || len(meta.GroundingChunks) == 0 {
		return nil
	}

	// Indexed one-to-one with GroundingChunks so support indices line up.
	citations := make([]models.Citation, len(meta.GroundingChunks))
	for i, chunk := range meta.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		citations[i] = models.Citation{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		}
	}

	for _, support := range meta.GroundingSupports {
		if support.Segment == nil {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			i := int(idx)
			if i < 0 || i >= len(citations) {
				continue
			}
			if citations[i].Start == 0 && citations[i].End == 0 {
				citations[i].Start = int(support.Segment.StartIndex)
				citations[i].End = int(support.Segment.EndIndex)
			}
		}
	}

	out := citations[:0]
	for _, c := range citations {
		if c.URI != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapFinishReason(reason genai.FinishReason) FinishReason {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return FinishReasonLength
	case genai.FinishReasonSafety:
		return FinishReasonSafety
	default:
		return FinishReasonStop
	}
}
