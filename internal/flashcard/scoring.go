package flashcard

const (
	pointsPerCard    = 10
	maxAccuracyBonus = 50
)

// Score is the outcome of one completed study session.
type Score struct {
	Accuracy      float64
	BasePoints    int
	AccuracyBonus int
	Points        int
}

// ScoreSession computes points for a session. Callers must ensure
// 0 <= correct <= reviewed and bound reviewed by the deck size;
// accuracy is 0 when nothing was reviewed.
func ScoreSession(reviewed, correct int) Score {
	s := Score{BasePoints: reviewed * pointsPerCard}
	if reviewed > 0 {
		s.Accuracy = float64(correct) / float64(reviewed)
		// Integer form of floor(accuracy * 50).
		s.AccuracyBonus = correct * maxAccuracyBonus / reviewed
	}
	s.Points = s.BasePoints + s.AccuracyBonus
	return s
}
