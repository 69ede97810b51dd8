package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
)

type scriptedClient struct {
	calls []Request
	resp  Response
	err   error
}

func (s *scriptedClient) Complete(_ context.Context, req Request) (Response, error) {
	s.calls = append(s.calls, req)
	return s.resp, s.err
}

func TestFallbackClient_PrimarySucceeds(t *testing.T) {
	primary := &scriptedClient{resp: Response{Text: "primary"}}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}

	resp, err := NewFallbackClient(primary, fallback, nil).Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Empty(t, fallback.calls)
}

func TestFallbackClient_UsesFallbackWithoutModel(t *testing.T) {
	primary := &scriptedClient{err: errors.New("down")}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}

	resp, err := NewFallbackClient(primary, fallback, nil).Complete(context.Background(), Request{Model: "primary-model"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Text)
	require.Len(t, fallback.calls, 1)
	assert.Empty(t, fallback.calls[0].Model)
}

func TestFallbackClient_BothFail(t *testing.T) {
	fbErr := errors.New("also down")
	primary := &scriptedClient{err: errors.New("down")}
	fallback := &scriptedClient{err: fbErr}

	_, err := NewFallbackClient(primary, fallback, nil).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, fbErr)
	assert.ErrorContains(t, err, "down")
}

func TestFallbackClient_NoFallbackOrCanceled(t *testing.T) {
	primaryErr := errors.New("down")
	primary := &scriptedClient{err: primaryErr}

	_, err := NewFallbackClient(primary, nil, nil).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, primaryErr)

	fallback := &scriptedClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFallbackClient(primary, fallback, nil).Complete(ctx, Request{})
	assert.ErrorIs(t, err, primaryErr)
	assert.Empty(t, fallback.calls)
}

func TestInstrumentedClient_RecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLLMMetrics(reg)
	ok := NewInstrumentedClient(&scriptedClient{resp: Response{Text: "x", Usage: TokenUsage{InputTokens: 5, OutputTokens: 2}}}, "bedrock", m)
	failing := NewInstrumentedClient(&scriptedClient{err: errors.New("boom")}, "openai", m)

	_, err := ok.Complete(context.Background(), Request{})
	require.NoError(t, err)
	_, err = failing.Complete(context.Background(), Request{})
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "incident_report_llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "incident_report_llm_tokens_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInstrumentedClient_NilMetrics(t *testing.T) {
	client := NewInstrumentedClient(&scriptedClient{resp: Response{Text: "x"}}, "gemini", nil)
	_, err := client.Complete(context.Background(), Request{})
	assert.NoError(t, err)
}
