package generation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/vytor/flashgenius/internal/models"
)

const (
	minSentenceChars  = 20
	minParagraphChars = 50
	maxAnswerChars    = 500
	minFallbackCards  = 5
)

var (
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+`)
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
)

var defaultCard = models.GeneratedCard{
	Question: "What is the main topic of this document?",
	Answer:   "This document contains information that can be studied using flashcards. The content covers various topics that can be learned through spaced repetition and active recall techniques.",
}

// Fallback builds cards from the text itself without any upstream call.
// It never returns an empty slice.
func Fallback(text string, count int) []models.GeneratedCard {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceChars {
			sentences = append(sentences, s)
		}
	}

	n := min(count, max(minFallbackCards, len(sentences)))
	cards := make([]models.GeneratedCard, 0, max(n, 1))

	for i := 0; i < n && i < len(sentences); i++ {
		cards = append(cards, models.GeneratedCard{
			Question: sentenceQuestion(i, sentences[i]),
			Answer:   truncate(sentences[i], maxAnswerChars),
		})
	}

	if len(cards) < n {
		for _, p := range paragraphSplitRe.Split(text, -1) {
			if len(cards) >= n {
				break
			}
			p = strings.TrimSpace(p)
			if utf8.RuneCountInString(p) <= minParagraphChars {
				continue
			}
			cards = append(cards, models.GeneratedCard{
				Question: fmt.Sprintf("What does the document explain about \"%s\"?", firstWords(p, 8)),
				Answer:   truncate(p, maxAnswerChars),
			})
		}
	}

	if len(cards) == 0 {
		return []models.GeneratedCard{defaultCard}
	}
	return cards
}

func sentenceQuestion(i int, sentence string) string {
	switch i % 4 {
	case 0:
		return "What does this text state about the following topic?"
	case 1:
		return fmt.Sprintf("According to the document, what information is provided about \"%s\"?", firstWords(sentence, 8))
	case 2:
		return "Complete this statement from the document."
	default:
		return fmt.Sprintf("What key information is mentioned regarding \"%s\"?", firstWords(sentence, 6))
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
