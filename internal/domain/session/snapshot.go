package session

// Snapshot is the observable state of a Session at one instant. The answer is
// only populated in the results phase.
type Snapshot struct {
	ID            string `json:"id,omitempty"`
	Phase         Phase  `json:"phase"`
	Category      string `json:"category,omitempty"`
	ScrambledWord string `json:"scrambledWord,omitempty"`
	UserInput     string `json:"userInput"`
	Score         int    `json:"score"`
	TimeRemaining int    `json:"timeRemaining"`
	HighScore     int    `json:"highScore"`
	RoundDuration int    `json:"roundDuration"`
	Round         int    `json:"round"`
	WordsSolved   int    `json:"wordsSolved"`
	HintsUsed     int    `json:"hintsUsed"`
	Revealed      string `json:"revealed,omitempty"`
	Answer        string `json:"answer,omitempty"`
}

// Playing reports whether a round is in progress.
func (s Snapshot) Playing() bool {
	return s.Phase == PhasePlaying
}
