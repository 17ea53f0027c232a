package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/vytor/flashgenius/internal/logger"
)

const defaultMaxTokens = 2048

type Client struct {
	api        anthropic.Client
	model      string
	timeout    time.Duration
	configured bool
}

// New creates a client for the Messages API. An empty apiKey yields a client
// whose Complete always returns ErrNotConfigured.
func New(apiKey, model string, timeout time.Duration) *Client {
	c := &Client{
		model:      model,
		timeout:    timeout,
		configured: strings.TrimSpace(apiKey) != "",
	}
	if c.configured {
		// Retries are owned by callers.
		c.api = anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	}
	return c
}

func (c *Client) Configured() bool {
	return c.configured
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("ai").WithField("model", c.model)
	if !c.configured {
		return "", ErrNotConfigured
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("completion request has no messages")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Debug("sending completion: messages=%d, max_tokens=%d", len(req.Messages), maxTokens)
	start := time.Now()

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		log.Error("completion failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("messages api: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		log.Warn("completion returned no text: stop_reason=%s", msg.StopReason)
		return "", fmt.Errorf("empty completion")
	}

	log.Debug("completion received in %v, chars=%d", time.Since(start), len(text))
	return text, nil
}
