// Package scoring holds the pure scoring rules: answer comparison, the award
// for a correct answer and the charge for a hint.
package scoring

import "strings"

// Default scoring configuration constants.
const (
	DefaultCorrectPoints = 10
	DefaultHintCost      = 2
)

// Rules is the fixed-price point table for a round.
type Rules struct {
	// CorrectPoints is added for every correctly unscrambled word.
	CorrectPoints int `json:"correctPoints"`
	// HintCost is deducted for every hint, regardless of word length or hints
	// already used.
	HintCost int `json:"hintCost"`
}

// DefaultRules returns the canonical point table.
func DefaultRules() Rules {
	return Rules{
		CorrectPoints: DefaultCorrectPoints,
		HintCost:      DefaultHintCost,
	}
}

// Matches reports whether guess spells word. Comparison is case-insensitive and
// whitespace is significant; word is expected in uppercase.
func Matches(guess, word string) bool {
	return strings.ToUpper(guess) == word
}

// Award returns the score after a correct answer.
func (r Rules) Award(score int) int {
	return score + r.CorrectPoints
}

// ChargeHint returns the score after paying for a hint. When score cannot cover
// the cost the hint is refused and score is returned unchanged.
func (r Rules) ChargeHint(score int) (int, bool) {
	if score < r.HintCost {
		return score, false
	}
	next := score - r.HintCost
	if next < 0 {
		next = 0
	}
	return next, true
}

// Expected returns the score a round must end with given its counters.
// Used by verification tooling.
func (r Rules) Expected(wordsSolved, hintsUsed int) int {
	return wordsSolved*r.CorrectPoints - hintsUsed*r.HintCost
}
