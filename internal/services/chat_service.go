package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vytor/flashgenius/internal/ai"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/metrics"
)

const (
	maxChatMessageChars = 2000
	chatHistoryWindow   = 8
)

const chatSystemPrompt = `You are an AI assistant for FlashGenius AI, a flashcard learning platform. You help users with:
- Study techniques and learning strategies
- Questions about flashcards and spaced repetition
- General academic and educational support
- Platform features and usage tips
- Memory techniques and learning optimization

Keep responses helpful, concise, and educational. If users ask about topics unrelated to learning or education, politely redirect them to educational topics.`

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatReply struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatService answers study questions through the LLM
type ChatService interface {
	Available() bool
	Send(ctx context.Context, message string, history []ChatMessage) (*ChatReply, error)
}

type chatService struct {
	client ai.ClientInterface
	now    func() time.Time
}

// NewChatService creates a new ChatService
func NewChatService(client ai.ClientInterface) ChatService {
	return &chatService{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) Available() bool {
	return s.client != nil && s.client.Configured()
}

func (s *chatService) Send(ctx context.Context, message string, history []ChatMessage) (*ChatReply, error) {
	log := logger.FromContext(ctx)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.NewValidationError("message", "is required")
	}
	if utf8.RuneCountInString(message) > maxChatMessageChars {
		return nil, errors.NewValidationError("message", "must be at most 2000 characters")
	}
	if !s.Available() {
		return nil, errors.NewUnavailableError("AI chat service is not configured")
	}

	req := ai.Request{
		System:    chatSystemPrompt,
		Messages:  buildConversation(history, message),
		MaxTokens: 1024,
	}
	log.Debug("sending chat message: chars=%d, context_messages=%d", utf8.RuneCountInString(message), len(req.Messages)-1)

	reply, err := s.client.Complete(ctx, req)
	if err != nil {
		metrics.AIRequests.WithLabelValues("chat", "error").Inc()
		log.Error("chat completion failed: %v", err)
		return nil, errors.NewUpstreamError("AI service is temporarily unavailable, please try again later", err)
	}
	metrics.AIRequests.WithLabelValues("chat", "ok").Inc()

	log.Info("chat message processed: response_chars=%d", utf8.RuneCountInString(reply))
	return &ChatReply{Message: strings.TrimSpace(reply), Timestamp: s.now()}, nil
}

// buildConversation keeps the last few history turns and appends the new
// message. Turns are merged so roles strictly alternate starting with the user.
func buildConversation(history []ChatMessage, message string) []ai.Message {
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}

	out := make([]ai.Message, 0, len(history)+1)
	push := func(role ai.Role, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		if len(out) == 0 && role != ai.RoleUser {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + content
			return
		}
		out = append(out, ai.Message{Role: role, Content: content})
	}

	for _, h := range history {
		role := ai.RoleUser
		if h.Role == string(ai.RoleAssistant) {
			role = ai.RoleAssistant
		}
		push(role, h.Content)
	}
	push(ai.RoleUser, message)
	return out
}
