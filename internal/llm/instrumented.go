package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
)

// InstrumentedClient records latency, outcome and token counts for a provider.
type InstrumentedClient struct {
	next     Client
	provider string
	metrics  *metrics.LLMMetrics
	tracer   trace.Tracer
	now      func() time.Time
}

func NewInstrumentedClient(next Client, provider string, m *metrics.LLMMetrics) *InstrumentedClient {
	if next == nil {
		panic("llm: instrumented client requires a delegate")
	}
	return &InstrumentedClient{
		next:     next,
		provider: provider,
		metrics:  m,
		tracer:   otel.Tracer("incident-report.internal.llm"),
		now:      time.Now,
	}
}

func (c *InstrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := c.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", c.provider),
	))
	defer span.End()

	start := c.now()
	resp, err := c.next.Complete(ctx, req)
	c.metrics.ObserveRequest(c.provider, c.now().Sub(start).Seconds(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}
	c.metrics.ObserveTokens(c.provider, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	span.SetAttributes(
		attribute.Int("llm.tokens.input", int(resp.Usage.InputTokens)),
		attribute.Int("llm.tokens.output", int(resp.Usage.OutputTokens)),
	)
	return resp, nil
}
