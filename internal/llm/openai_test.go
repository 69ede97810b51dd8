package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " report text "}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
		}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("sk-test", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		System:      []string{"system prompt"},
		Messages:    []Message{{Role: RoleUser, Content: "narrative"}},
		MaxTokens:   100,
		Temperature: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "report text", resp.Text)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, TokenUsage{InputTokens: 9, OutputTokens: 3, TotalTokens: 12}, resp.Usage)

	assert.Equal(t, defaultOpenAIModel, body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("sk-test", "gpt-4o", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorContains(t, err, "llm: openai completion")
}

func TestOpenAIClient_Validation(t *testing.T) {
	_, err := NewOpenAIClient(" ", "")
	assert.Error(t, err)

	client, err := NewOpenAIClient("sk-test", "")
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{System: []string{"only system"}})
	assert.ErrorContains(t, err, "at least one user message")
}
