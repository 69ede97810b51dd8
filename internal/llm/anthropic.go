package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	client  anthropic.Client
	modelID string
}

func NewAnthropicClient(apiKey, modelID string, opts ...option.RequestOption) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: anthropic api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		modelID: modelID,
	}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	var system []anthropic.TextBlockParam
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			system = append(system, anthropic.TextBlockParam{Text: block})
		}
	}

	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: content})
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(content)))
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
	}
	if len(messages) == 0 {
		return Response{}, errors.New("llm: at least one user message is required")
	}

	model := c.modelID
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}
	maxTokens := int64(defaultAnthropicMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: maxTokens,
		System:    system,
	}
	if req.Temperature >= 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: anthropic completion: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return Response{}, errors.New("llm: anthropic returned no text content")
	}

	in := int32(resp.Usage.InputTokens)
	out := int32(resp.Usage.OutputTokens)
	return Response{
		Text:       text,
		StopReason: string(resp.StopReason),
		Usage:      TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}
