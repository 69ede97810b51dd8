package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (s *stubConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.input = in
	return s.out, s.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(4),
			TotalTokens:  aws.Int32(16),
		},
	}
}

func TestBedrockClient_Complete(t *testing.T) {
	api := &stubConverse{out: textOutput("  {\"fields\":{}}  ")}
	client := NewBedrockClient(api, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"be terse", " "},
		Messages:    []Message{{Role: RoleUser, Content: "narrative"}, {Role: RoleSystem, Content: "extra"}},
		MaxTokens:   256,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"fields":{}}`, resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, TokenUsage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}, resp.Usage)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	assert.Len(t, api.input.Messages, 1)
	assert.Equal(t, int32(256), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockClient_RequestModelOverrides(t *testing.T) {
	api := &stubConverse{out: textOutput("ok")}
	client := NewBedrockClient(api, "default-model")

	_, err := client.Complete(context.Background(), Request{
		Model:       "other-model",
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Temperature: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "other-model", aws.ToString(api.input.ModelId))
	assert.Nil(t, api.input.InferenceConfig)
}

func TestBedrockClient_Errors(t *testing.T) {
	ctx := context.Background()
	user := []Message{{Role: RoleUser, Content: "hi"}}

	_, err := NewBedrockClient(&stubConverse{}, "").Complete(ctx, Request{Messages: user})
	assert.ErrorContains(t, err, "model id is required")

	_, err = NewBedrockClient(&stubConverse{}, "m").Complete(ctx, Request{Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.ErrorContains(t, err, "unsupported role")

	_, err = NewBedrockClient(&stubConverse{}, "m").Complete(ctx, Request{})
	assert.ErrorContains(t, err, "at least one user message")

	boom := errors.New("throttled")
	_, err = NewBedrockClient(&stubConverse{err: boom}, "m").Complete(ctx, Request{Messages: user})
	assert.ErrorIs(t, err, boom)

	_, err = NewBedrockClient(&stubConverse{out: &bedrockruntime.ConverseOutput{}}, "m").Complete(ctx, Request{Messages: user})
	assert.ErrorContains(t, err, "did not include a message output")

	_, err = NewBedrockClient(&stubConverse{out: textOutput("   ")}, "m").Complete(ctx, Request{Messages: user})
	assert.ErrorContains(t, err, "no text content")
}

func TestNewBedrockClientPanicsWithoutAPI(t *testing.T) {
	assert.Panics(t, func() { NewBedrockClient(nil, "m") })
}
