package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/vytor/flashgenius/internal/ai"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/metrics"
	"github.com/vytor/flashgenius/internal/models"
)

type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

const (
	maxPromptChars = 4000
	minAICards     = 5
	maxAICards     = 20
)

// Result always carries at least one card.
type Result struct {
	Cards  []models.GeneratedCard
	Source Source
}

// Generator turns document text into question/answer pairs.
type Generator interface {
	Generate(ctx context.Context, text string, count int) Result
}

type generator struct {
	client         ai.ClientInterface
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type Option func(*generator)

// WithBackoff overrides the retry delays between upstream attempts.
func WithBackoff(initial, max time.Duration) Option {
	return func(g *generator) {
		g.initialBackoff = initial
		g.maxBackoff = max
	}
}

func New(client ai.ClientInterface, maxAttempts int, opts ...Option) Generator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	g := &generator{
		client:         client,
		maxAttempts:    maxAttempts,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *generator) Generate(ctx context.Context, text string, count int) Result {
	log := logger.FromContext(ctx).WithPrefix("generation")

	if g.client == nil || !g.client.Configured() {
		log.Warn("ai client not configured, using fallback flashcards")
		return g.fallback(text, count)
	}

	cards, err := g.generateAI(ctx, text, count)
	if err != nil {
		log.Warn("ai generation failed, using fallback: %v", err)
		return g.fallback(text, count)
	}
	if len(cards) == 0 {
		log.Warn("ai returned no valid flashcards, using fallback")
		return g.fallback(text, count)
	}

	log.Info("generated %d flashcards with ai", len(cards))
	metrics.Generations.WithLabelValues(string(SourceAI)).Inc()
	return Result{Cards: cards, Source: SourceAI}
}

func (g *generator) fallback(text string, count int) Result {
	metrics.Generations.WithLabelValues(string(SourceFallback)).Inc()
	return Result{Cards: Fallback(text, count), Source: SourceFallback}
}

func (g *generator) generateAI(ctx context.Context, text string, count int) ([]models.GeneratedCard, error) {
	log := logger.FromContext(ctx).WithPrefix("generation")
	n := clamp(count, minAICards, maxAICards)
	req := ai.Request{
		Messages:  []ai.Message{{Role: ai.RoleUser, Content: buildPrompt(truncate(text, maxPromptChars), n)}},
		MaxTokens: 4096,
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.initialBackoff
	exp.MaxInterval = g.maxBackoff
	exp.Multiplier = 2
	exp.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(g.maxAttempts-1)), ctx)

	attempt := 0
	var cards []models.GeneratedCard
	err := backoff.Retry(func() error {
		attempt++
		raw, err := g.client.Complete(ctx, req)
		if err != nil {
			metrics.AIRequests.WithLabelValues("generation", "error").Inc()
			log.Debug("completion attempt %d/%d failed: %v", attempt, g.maxAttempts, err)
			if errors.Is(err, ai.ErrNotConfigured) {
				return backoff.Permanent(err)
			}
			return err
		}
		metrics.AIRequests.WithLabelValues("generation", "ok").Inc()

		parsed, err := ParseCards(raw)
		if err != nil {
			// A malformed answer is not a transport failure.
			return backoff.Permanent(err)
		}
		cards = parsed
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("after %d attempt(s): %w", attempt, err)
	}
	return cards, nil
}

func buildPrompt(text string, n int) string {
	return fmt.Sprintf(`Create exactly %d high-quality, complete flashcards from this text.

IMPORTANT REQUIREMENTS:
- Each question must be complete and clear (minimum 10 words)
- Each answer must be comprehensive and complete (minimum 15 words)
- Do NOT truncate or cut off questions or answers
- Ensure all text is fully readable and makes sense
- Generate a good mix of question types: factual, conceptual, definition, and application questions

Text to analyze: %s

Return ONLY a valid JSON array with complete, untruncated questions and answers:
[{"question":"Complete question here that is fully readable?","answer":"Complete answer here that provides full information and context."}]`, n, text)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// truncate cuts s to max runes and appends "..." when it was longer.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
