package flashcard

import (
	"sort"

	"github.com/vytor/flashgenius/internal/models"
)

// OrderForStudy returns cards sorted for a review pass: least recently reviewed
// first (never-reviewed before any reviewed card), then harder before easier, then
// fewer reviews first. The sort is stable so remaining ties keep input order.
// The input slice is not modified.
func OrderForStudy(cards []models.Card) []models.Card {
	out := make([]models.Card, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		return studyLess(out[i], out[j])
	})
	return out
}

func studyLess(a, b models.Card) bool {
	switch {
	case a.LastReviewedAt == nil && b.LastReviewedAt != nil:
		return true
	case a.LastReviewedAt != nil && b.LastReviewedAt == nil:
		return false
	case a.LastReviewedAt != nil && b.LastReviewedAt != nil && !a.LastReviewedAt.Equal(*b.LastReviewedAt):
		return a.LastReviewedAt.Before(*b.LastReviewedAt)
	}
	if ra, rb := a.Difficulty.Rank(), b.Difficulty.Rank(); ra != rb {
		return ra > rb
	}
	return a.TimesReviewed < b.TimesReviewed
}
