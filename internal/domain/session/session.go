// Package session implements the game session state machine: phases, the word
// lifecycle, the round timer count and the scoring and hint rules.
//
// A Session is not safe for concurrent use. All mutation must be serialised
// by its owner.
package session

import (
	"fmt"
	"strings"

	"github.com/okian/scramble/internal/domain/scoring"
	"github.com/okian/scramble/internal/domain/scramble"
)

// Action names used in ErrInvalidAction messages.
const (
	ActionPlay           = "play"
	ActionChooseCategory = "choose_category"
	ActionUpdateGuess    = "update_guess"
	ActionSubmitGuess    = "submit_guess"
	ActionRequestHint    = "request_hint"
	ActionTick           = "tick"
	ActionPlayAgain      = "play_again"
	ActionRestart        = "restart"
	ActionReturnToMenu   = "return_to_menu"
)

// WordSource supplies the word list for a category.
type WordSource interface {
	WordsFor(category string) ([]string, error)
}

// Session is the mutable state of one player's game.
type Session struct {
	id        string
	cfg       Config
	words     WordSource
	scrambler *scramble.Scrambler

	phase         Phase
	category      string
	pool          []string
	currentWord   string
	scrambledWord string
	userInput     string
	score         int
	timeRemaining int
	highScore     int

	round       int
	wordsSolved int
	hintsUsed   int
	revealed    string
	lastWord    string
}

// New creates a Session in the menu phase.
func New(words WordSource, opts ...Option) *Session {
	s := &Session{
		cfg:   DefaultConfig(),
		words: words,
		phase: PhaseMenu,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scrambler == nil {
		s.scrambler = scramble.New()
	}
	return s
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Config returns the parameters the session was built with.
func (s *Session) Config() Config { return s.cfg }

// Play moves from the menu to category selection.
func (s *Session) Play() error {
	if err := s.require(ActionPlay, PhaseMenu); err != nil {
		return err
	}
	return s.enter(PhaseCategorySelect)
}

// ChooseCategory starts a round in category. An unknown or empty category
// leaves the session in category selection.
func (s *Session) ChooseCategory(category string) error {
	if err := s.require(ActionChooseCategory, PhaseCategorySelect); err != nil {
		return err
	}
	return s.startRound(category)
}

// UpdateGuess replaces the guess buffer.
func (s *Session) UpdateGuess(text string) error {
	if err := s.require(ActionUpdateGuess, PhasePlaying); err != nil {
		return err
	}
	s.userInput = text
	return nil
}

// SubmitGuess compares the guess buffer with the current word. A match awards
// points and draws the next word. A mismatch changes nothing and returns
// ErrGuessMismatch together with a failure notice.
func (s *Session) SubmitGuess() (Notice, error) {
	if err := s.require(ActionSubmitGuess, PhasePlaying); err != nil {
		return Notice{}, err
	}
	if !scoring.Matches(s.userInput, s.currentWord) {
		return wrongGuessNotice(), ErrGuessMismatch
	}
	s.score = s.cfg.Rules.Award(s.score)
	s.wordsSolved++
	s.drawWord()
	return correctNotice(s.cfg.Rules.CorrectPoints), nil
}

// RequestHint pays for the first letter of the current word. When the score
// cannot cover the cost nothing changes and ErrInsufficientScore is returned
// with a failure notice.
func (s *Session) RequestHint() (Notice, error) {
	if err := s.require(ActionRequestHint, PhasePlaying); err != nil {
		return Notice{}, err
	}
	next, ok := s.cfg.Rules.ChargeHint(s.score)
	if !ok {
		return insufficientScoreNotice(), ErrInsufficientScore
	}
	s.score = next
	s.hintsUsed++
	letter := firstLetter(s.currentWord)
	s.revealed = letter
	if s.cfg.HintMode == HintPrefix {
		s.userInput = letter
	}
	return hintNotice(letter), nil
}

// Tick applies one second of the countdown. When the timer reaches zero the
// round ends: the high score is latched and expired is true.
func (s *Session) Tick() (n Notice, expired bool, err error) {
	if err := s.require(ActionTick, PhasePlaying); err != nil {
		return Notice{}, false, err
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
	if s.timeRemaining > 0 {
		return Notice{}, false, nil
	}
	if err := s.finishRound(); err != nil {
		return Notice{}, false, err
	}
	return timeUpNotice(), true, nil
}

// PlayAgain returns to category selection, keeping the last category as a
// preselection.
func (s *Session) PlayAgain() error {
	if err := s.require(ActionPlayAgain, PhaseResults); err != nil {
		return err
	}
	return s.enter(PhaseCategorySelect)
}

// Restart starts a fresh round in the same category straight from results.
func (s *Session) Restart() error {
	if err := s.require(ActionRestart, PhaseResults); err != nil {
		return err
	}
	return s.startRound(s.category)
}

// ReturnToMenu goes back to the menu and clears the selected category.
func (s *Session) ReturnToMenu() error {
	if err := s.require(ActionReturnToMenu, PhaseResults, PhaseCategorySelect); err != nil {
		return err
	}
	if err := s.enter(PhaseMenu); err != nil {
		return err
	}
	s.category = ""
	s.pool = nil
	return nil
}

// Snapshot returns an immutable view of the session for presentation.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:            s.id,
		Phase:         s.phase,
		Category:      s.category,
		ScrambledWord: s.scrambledWord,
		UserInput:     s.userInput,
		Score:         s.score,
		TimeRemaining: s.timeRemaining,
		HighScore:     s.highScore,
		RoundDuration: s.cfg.RoundDuration,
		Round:         s.round,
		WordsSolved:   s.wordsSolved,
		HintsUsed:     s.hintsUsed,
		Revealed:      s.revealed,
	}
	if s.phase == PhaseResults {
		snap.Answer = s.lastWord
	}
	return snap
}

func (s *Session) startRound(category string) error {
	name := strings.ToLower(strings.TrimSpace(category))
	words, err := s.words.WordsFor(name)
	if err != nil {
		return fmt.Errorf("choose category %q: %w", category, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("choose category %q: %w", category, ErrUnknownCategory)
	}
	if err := s.enter(PhasePlaying); err != nil {
		return err
	}
	s.category = name
	s.pool = words
	s.score = 0
	s.timeRemaining = s.cfg.RoundDuration
	s.round++
	s.wordsSolved = 0
	s.hintsUsed = 0
	s.lastWord = ""
	s.drawWord()
	return nil
}

// drawWord picks uniformly with replacement; consecutive repeats are allowed.
func (s *Session) drawWord() {
	s.currentWord = s.pool[s.scrambler.Intn(len(s.pool))]
	s.scrambledWord = s.scrambler.Scramble(s.currentWord)
	s.userInput = ""
	s.revealed = ""
}

func (s *Session) finishRound() error {
	if err := s.enter(PhaseResults); err != nil {
		return err
	}
	if s.score > s.highScore {
		s.highScore = s.score
	}
	s.lastWord = s.currentWord
	s.currentWord = ""
	s.scrambledWord = ""
	s.userInput = ""
	s.revealed = ""
	s.timeRemaining = 0
	return nil
}

// enter moves to next along the transition table and mutates nothing else.
func (s *Session) enter(next Phase) error {
	if !s.phase.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidAction, s.phase, next)
	}
	s.phase = next
	return nil
}

func (s *Session) require(action string, allowed ...Phase) error {
	for _, p := range allowed {
		if s.phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in phase %s", ErrInvalidAction, action, s.phase)
}

func firstLetter(word string) string {
	for _, r := range word {
		return string(r)
	}
	return ""
}
