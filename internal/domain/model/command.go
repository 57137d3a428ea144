// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/scramble/internal/domain/session"
)

// Kind names a command handled by a session actor.
type Kind string

// Player actions, plus the internal tick and read commands.
const (
	KindPlay           Kind = "play"
	KindChooseCategory Kind = "choose_category"
	KindUpdateGuess    Kind = "update_guess"
	KindSubmitGuess    Kind = "submit_guess"
	KindRequestHint    Kind = "request_hint"
	KindPlayAgain      Kind = "play_again"
	KindRestart        Kind = "restart"
	KindReturnToMenu   Kind = "return_to_menu"
	KindTick           Kind = "tick"
	KindSnapshot       Kind = "snapshot"
	KindSubscribe      Kind = "subscribe"
)

var playerKinds = map[Kind]struct{}{ //nolint:gochecknoglobals // static lookup
	KindPlay:           {},
	KindChooseCategory: {},
	KindUpdateGuess:    {},
	KindSubmitGuess:    {},
	KindRequestHint:    {},
	KindPlayAgain:      {},
	KindRestart:        {},
	KindReturnToMenu:   {},
}

// ParseKind accepts only player actions; tick and snapshot are internal.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := playerKinds[k]
	return k, ok
}

// Mutates reports whether the command can change session state.
func (k Kind) Mutates() bool {
	return k != KindSnapshot && k != KindSubscribe
}

// Command is one unit of work for a session actor.
type Command struct {
	SessionID string
	Kind      Kind
	// Category is set for KindChooseCategory.
	Category string
	// Text is set for KindUpdateGuess.
	Text string
	// Generation is set for KindTick.
	Generation uint64
	// Events is set for KindSubscribe; the actor registers it and sends the
	// current state as the first event.
	Events chan Event
	// IdempotencyKey, when present, makes the command apply at most once.
	IdempotencyKey string
	EnqueuedAt     time.Time
	// Reply receives exactly one value when non-nil. It must be buffered.
	Reply chan Reply
}

// Reply is the actor's answer to a Command.
type Reply struct {
	Snapshot  session.Snapshot
	Notice    session.Notice
	Duplicate bool
	Err       error
}

// NewCommand builds a command with a one-slot reply channel.
func NewCommand(sessionID string, kind Kind) Command {
	return Command{
		SessionID:  sessionID,
		Kind:       kind,
		EnqueuedAt: time.Now(),
		Reply:      make(chan Reply, 1),
	}
}
