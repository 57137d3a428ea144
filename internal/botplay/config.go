// Package botplay drives automated players against a running scramble server.
package botplay

import "time"

// Config holds configuration for a bot run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Bots        int           // Number of bots, one session each
	Category    string        // Category to play; empty picks per bot from the server list
	CatalogFile string        // Word catalog used by the solver; empty uses the built-in one
	Workers     int           // Maximum bots playing at once
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
	// ThinkTime paces each bot between words.
	ThinkTime time.Duration
}

// BotResult is the outcome of one bot's round.
type BotResult struct {
	Bot          int      `json:"bot"`
	SessionID    string   `json:"sessionId"`
	Category     string   `json:"category"`
	Score        int      `json:"score"`
	HighScore    int      `json:"highScore"`
	WordsSolved  int      `json:"wordsSolved"`
	HintsUsed    int      `json:"hintsUsed"`
	WrongGuesses int      `json:"wrongGuesses"`
	Unsolved     []string `json:"unsolved,omitempty"`
	Err          string   `json:"error,omitempty"`
}

// Report holds run statistics.
type Report struct {
	Results      []BotResult
	Rounds       int
	Failures     int
	Mismatches   int
	TotalScore   int
	BestScore    int
	AverageScore float64
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// snapshot mirrors the session view returned by the API.
type snapshot struct {
	ID            string `json:"id"`
	Phase         string `json:"phase"`
	Category      string `json:"category"`
	ScrambledWord string `json:"scrambledWord"`
	UserInput     string `json:"userInput"`
	Score         int    `json:"score"`
	TimeRemaining int    `json:"timeRemaining"`
	HighScore     int    `json:"highScore"`
	Round         int    `json:"round"`
	WordsSolved   int    `json:"wordsSolved"`
	HintsUsed     int    `json:"hintsUsed"`
	Revealed      string `json:"revealed"`
	Answer        string `json:"answer"`
}

type notice struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// actionResponse mirrors successful and error bodies of session actions.
type actionResponse struct {
	Snapshot  *snapshot `json:"snapshot"`
	Notice    *notice   `json:"notice"`
	Duplicate bool      `json:"duplicate"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

type category struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// rules are read from /stats so verification follows the server's configuration.
type rules struct {
	CorrectPoints int `json:"correctPoints"`
	HintCost      int `json:"hintCost"`
}
