package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider uses the Google Gen AI SDK against the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider for the Gemini API.
func NewGeminiProvider(ctx context.Context, cfg BackendConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel("gemini", cfg.Model)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	conf := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		conf.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, conf)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return nil, &ErrMaxTokensExceeded{MaxTokens: req.MaxTokens}
	}

	content := json.RawMessage(result.Text())
	if err := ValidateJSON(req.Schema, content); err != nil {
		return nil, err
	}

	resp := &Response{Content: content, Model: p.model, StopReason: "end"}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts the JSON Schema subset used by our schemas into
// the SDK's schema type.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			s.Type = gt
		}
	}
	s.Description, _ = def["description"].(string)

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if sub, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])
	if n, ok := def["minItems"].(int); ok {
		s.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := def["maxItems"].(int); ok {
		s.MaxItems = genai.Ptr(int64(n))
	}
	return s
}

// stringList accepts both []string and []any holding strings.
func stringList(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
