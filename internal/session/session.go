// Package session holds the per-user state of the edit wizard.
//
// A session is created on /edit, mutated by each wizard step and destroyed on
// a terminal transition or an explicit clear. The store guards its map only:
// two events of the same session racing each other is undefined behaviour.
// The dispatcher routes a session's events to one worker, which keeps them
// sequential in practice.
package session

import (
	"context"
	"strconv"
	"time"
)

// State is a step of the edit wizard.
type State string

const (
	StateSelectingRow     State = "selecting_row"
	StateChoosingAction   State = "choosing_action"
	StateWaitingAmount    State = "waiting_amount"
	StateWaitingDate      State = "waiting_date"
	StateChoosingCategory State = "choosing_category"
	StateConfirmingCancel State = "confirming_cancel"
)

// WaitsForText reports whether the state consumes the next text message.
func (s State) WaitsForText() bool {
	return s == StateWaitingAmount || s == StateWaitingDate
}

// MessageRef addresses the single message the wizard renders into.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the reference was never bound.
func (m MessageRef) IsZero() bool { return m.MessageID == 0 }

// Key scopes a session to one user in one chat.
type Key struct {
	ChatID   int64
	AuthorID string
}

// String renders the key for logs and dispatch sharding.
func (k Key) String() string {
	return strconv.FormatInt(k.ChatID, 10) + ":" + k.AuthorID
}

// Session is the wizard context: where it is, which row it edits and which
// message it renders into. Row is 0 until a row is selected.
type Session struct {
	State     State
	Row       int
	Message   MessageRef
	StartedAt time.Time
	UpdatedAt time.Time
}

// Store persists sessions between events.
type Store interface {
	Get(ctx context.Context, key Key) (Session, bool)
	Save(ctx context.Context, key Key, s Session)
	Clear(ctx context.Context, key Key)
}
