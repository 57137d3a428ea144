package session

import "fmt"

// Level tells the presentation layer how to style a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

// Notice codes.
const (
	CodeCorrect           = "correct"
	CodeWrongGuess        = "wrong_guess"
	CodeHint              = "hint"
	CodeInsufficientScore = "insufficient_score"
	CodeTimeUp            = "time_up"
)

// Notice is an ephemeral notification for the player. The zero value means
// nothing to show.
type Notice struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsZero reports whether n carries no notification.
func (n Notice) IsZero() bool {
	return n.Code == ""
}

func correctNotice(points int) Notice {
	return Notice{Level: LevelSuccess, Code: CodeCorrect, Message: fmt.Sprintf("Correct! +%d points", points)}
}

func wrongGuessNotice() Notice {
	return Notice{Level: LevelFailure, Code: CodeWrongGuess, Message: "Try again!"}
}

func hintNotice(letter string) Notice {
	return Notice{Level: LevelSuccess, Code: CodeHint, Message: "First letter is " + letter}
}

func insufficientScoreNotice() Notice {
	return Notice{Level: LevelFailure, Code: CodeInsufficientScore, Message: "Not enough points for hint!"}
}

func timeUpNotice() Notice {
	return Notice{Level: LevelFailure, Code: CodeTimeUp, Message: "Time's up!"}
}
