package flashcard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/flashgenius/internal/flashcard"
)

func TestScoreSession_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		reviewed int
		correct  int
		want     flashcard.Score
	}{
		{
			name:     "eight of ten",
			reviewed: 10,
			correct:  8,
			want:     flashcard.Score{Accuracy: 0.8, BasePoints: 100, AccuracyBonus: 40, Points: 140},
		},
		{
			name:     "nothing reviewed",
			reviewed: 0,
			correct:  0,
			want:     flashcard.Score{Accuracy: 0, BasePoints: 0, AccuracyBonus: 0, Points: 0},
		},
		{
			name:     "perfect",
			reviewed: 5,
			correct:  5,
			want:     flashcard.Score{Accuracy: 1, BasePoints: 50, AccuracyBonus: 50, Points: 100},
		},
		{
			name:     "bonus floors",
			reviewed: 3,
			correct:  1,
			want:     flashcard.Score{Accuracy: 1.0 / 3.0, BasePoints: 30, AccuracyBonus: 16, Points: 46},
		},
		{
			name:     "all wrong",
			reviewed: 7,
			correct:  0,
			want:     flashcard.Score{Accuracy: 0, BasePoints: 70, AccuracyBonus: 0, Points: 70},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flashcard.ScoreSession(tt.reviewed, tt.correct)
			assert.InDelta(t, tt.want.Accuracy, got.Accuracy, 1e-9)
			assert.Equal(t, tt.want.BasePoints, got.BasePoints)
			assert.Equal(t, tt.want.AccuracyBonus, got.AccuracyBonus)
			assert.Equal(t, tt.want.Points, got.Points)
		})
	}
}

func TestScoreSession_MatchesFormulaAndIsMonotonic(t *testing.T) {
	for reviewed := 0; reviewed <= 40; reviewed++ {
		prev := -1
		for correct := 0; correct <= reviewed; correct++ {
			got := flashcard.ScoreSession(reviewed, correct).Points

			want := 0
			if reviewed > 0 {
				want = reviewed*10 + (correct*50)/reviewed
			}
			assert.Equal(t, want, got, "reviewed=%d correct=%d", reviewed, correct)
			assert.GreaterOrEqual(t, got, prev, "points must not drop as correct answers grow")
			prev = got
		}
		if reviewed > 0 {
			assert.Greater(t,
				flashcard.ScoreSession(reviewed, 0).Points,
				flashcard.ScoreSession(reviewed-1, 0).Points,
				"points must grow with cards reviewed")
		}
	}
}
