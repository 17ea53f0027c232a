package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vytor/flashgenius/internal/models"
)

const (
	minQuestionChars = 10
	minAnswerChars   = 15
)

var fenceRe = regexp.MustCompile("```json\\n?|\\n?```")

// ParseCards extracts the JSON array of cards from a model reply and drops
// entries that are too short or look truncated. At most 20 cards are kept.
func ParseCards(raw string) ([]models.GeneratedCard, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}

	cards := make([]models.GeneratedCard, 0, len(items))
	for _, item := range items {
		var c struct {
			Question any `json:"question"`
			Answer   any `json:"answer"`
		}
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		q, qok := c.Question.(string)
		a, aok := c.Answer.(string)
		if !qok || !aok {
			continue
		}
		q, a = strings.TrimSpace(q), strings.TrimSpace(a)
		if utf8.RuneCountInString(q) < minQuestionChars || utf8.RuneCountInString(a) < minAnswerChars {
			continue
		}
		if strings.HasSuffix(q, "...") || strings.HasSuffix(a, "...") {
			continue
		}
		cards = append(cards, models.GeneratedCard{Question: q, Answer: a})
		if len(cards) == maxAICards {
			break
		}
	}
	return cards, nil
}
