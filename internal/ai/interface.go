package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Complete when no API key is set.
var ErrNotConfigured = errors.New("ai client not configured")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call. Messages must end with a user turn.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// ClientInterface defines the text completion operations used by generation and chat.
type ClientInterface interface {
	Complete(ctx context.Context, req Request) (string, error)
	Configured() bool
}

var _ ClientInterface = (*Client)(nil)
