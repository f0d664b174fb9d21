package bot

import (
	"strconv"
	"time"

	"github.com/dvloznov/ledger-bot/internal/session"
)

// EventKind classifies a normalized transport event.
type EventKind int

const (
	KindText EventKind = iota + 1
	KindVoice
	KindCommand
	KindCallback
)

// Voice describes an attached voice note.
type Voice struct {
	FileID   string
	MIMEType string
	Duration int // seconds
}

// Event is a transport update reduced to what the core needs.
type Event struct {
	Kind      EventKind
	ChatID    int64
	AuthorID  string
	MessageID int // incoming message id; for callbacks the id of the message carrying the button

	Text    string // message text or voice caption
	Command string // command name without the slash, for KindCommand
	Voice   *Voice

	CallbackData string
}

// Key returns the session key of the event's author.
func (e Event) Key() session.Key {
	return session.Key{ChatID: e.ChatID, AuthorID: e.AuthorID}
}

// LedgerMessageID is the message id written to the journal. Transport ids
// repeat across chats, so the chat id is part of it.
func (e Event) LedgerMessageID() string {
	return strconv.FormatInt(e.ChatID, 10) + "_" + strconv.Itoa(e.MessageID)
}

// MessageRef addresses the event's own message.
func (e Event) MessageRef() session.MessageRef {
	return session.MessageRef{ChatID: e.ChatID, MessageID: e.MessageID}
}

// ReplyAction tells the transport what to do with a Reply.
type ReplyAction int

const (
	// ActionSend sends a new message to the event's chat.
	ActionSend ReplyAction = iota + 1
	// ActionEdit replaces text and buttons of Target in place.
	ActionEdit
	// ActionDelete deletes Target.
	ActionDelete
	// ActionToast answers the pressed button with a short notice.
	ActionToast
)

// Button is one inline button. Data is at most 64 bytes.
type Button struct {
	Text string
	Data string
}

// Reply is one rendering instruction. Text is HTML.
type Reply struct {
	Action  ReplyAction
	Target  session.MessageRef
	Text    string
	Buttons [][]Button

	// Alert shows a toast as a modal alert.
	Alert bool
	// Pause is how long the transport waits after executing this reply.
	Pause time.Duration
	// BindSession makes the sent message the session's rendered message.
	BindSession bool
}

func send(text string, buttons [][]Button) Reply {
	return Reply{Action: ActionSend, Text: text, Buttons: buttons}
}

func edit(target session.MessageRef, text string, buttons [][]Button) Reply {
	return Reply{Action: ActionEdit, Target: target, Text: text, Buttons: buttons}
}

func toast(text string, alert bool) Reply {
	return Reply{Action: ActionToast, Text: text, Alert: alert}
}
