package meter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoCompleter is returned by Complete when no LLM provider is configured.
var ErrNoCompleter = errors.New("meter: llm provider not configured (use WithOpenAI or WithCompleter)")

// Complete runs one metered LLM turn: the token quota is checked against
// req.MaxTokens, the provider is called, and consumption is recorded.
func (c *Client) Complete(ctx context.Context, accountID string, req CompletionRequest) (_ CompletionResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("complete", start, err) }()

	if c.llm == nil {
		return CompletionResult{}, ErrNoCompleter
	}
	res, err := c.llm.Complete(ctx, accountID, req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return res, nil
}
