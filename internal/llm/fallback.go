package llm

import (
	"context"
	"fmt"

	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// FallbackClient retries a failed primary completion on a secondary provider.
// A nil fallback makes it a pass-through.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

func NewFallbackClient(primary, fallback Client, logger *logging.Logger) *FallbackClient {
	if primary == nil {
		panic("llm: primary client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if c.fallback == nil || ctx.Err() != nil {
		return Response{}, err
	}

	c.logger.Warn("primary llm failed, trying fallback", "error", err)

	// The request model is provider specific; let the fallback use its own.
	req.Model = ""
	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback llm also failed",
			"primary_error", err,
			"fallback_error", fallbackErr,
		)
		return Response{}, fmt.Errorf("llm: fallback failed after primary error %q: %w", err.Error(), fallbackErr)
	}
	c.logger.Info("fallback llm succeeded after primary failure")
	return resp, nil
}
