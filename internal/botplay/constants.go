package botplay

import "time"

// HTTP status code constants.
const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusNoContent = 204
)

// Game phases as reported by the API.
const (
	phaseMenu           = "menu"
	phaseCategorySelect = "category-select"
	phasePlaying        = "playing"
	phaseResults        = "results"
)

// Runner configuration constants.
const (
	DefaultThinkTime     = 50 * time.Millisecond
	pollInterval         = 100 * time.Millisecond
	maxGuessesPerWord    = 8
	defaultTopBots       = 10
	PercentageMultiplier = 100
)

// Notice codes the bot reacts to.
const (
	codeCorrect    = "correct"
	codeWrongGuess = "wrong_guess"
	codeHint       = "hint"
)
