package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider uses the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider for the Anthropic API.
func NewAnthropicProvider(cfg BackendConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{
		client: &client,
		model:  resolveModel("anthropic", cfg.Model),
	}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		return nil, &ErrMaxTokensExceeded{MaxTokens: req.MaxTokens}
	}

	var content json.RawMessage
	for _, block := range msg.Content {
		if block.Type == "text" {
			content = json.RawMessage(block.Text)
			break
		}
	}
	if content == nil {
		return nil, &ErrInvalidResponse{Err: errors.New("no text block in response")}
	}
	if err := ValidateJSON(req.Schema, content); err != nil {
		return nil, err
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &Response{
		Content:    content,
		Usage:      Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
		Model:      string(msg.Model),
		StopReason: "end",
	}, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}
