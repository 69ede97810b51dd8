package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	client  openai.Client
	modelID string
}

// NewOpenAIClient builds a client for the given key. Extra options are passed
// to the SDK, e.g. option.WithBaseURL for compatible gateways.
func NewOpenAIClient(apiKey, modelID string, opts ...option.RequestOption) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: openai api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		modelID: modelID,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			messages = append(messages, openai.SystemMessage(block))
		}
	}
	hasUser := false
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(content))
		case RoleUser:
			hasUser = true
			messages = append(messages, openai.UserMessage(content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(content))
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
	}
	if !hasUser {
		return Response{}, errors.New("llm: at least one user message is required")
	}

	model := c.modelID
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("llm: openai returned no choices")
	}
	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return Response{}, errors.New("llm: openai returned empty content")
	}

	return Response{
		Text:       text,
		StopReason: choice.FinishReason,
		Usage: TokenUsage{
			InputTokens:  int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}
