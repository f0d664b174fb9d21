package domain

import "time"

// EventType names a ledger mutation.
type EventType string

const (
	EventAppended       EventType = "appended"
	EventResolved       EventType = "resolved"
	EventAmountEdited   EventType = "amount_edited"
	EventDateEdited     EventType = "date_edited"
	EventCategoryEdited EventType = "category_edited"
	EventRecordCanceled EventType = "canceled"
)

// LedgerEvent describes one mutation of the journal for the audit trail.
// Row is the 1-based sheet row at the time of the write.
type LedgerEvent struct {
	Type       EventType
	Row        int
	AuthorID   string
	MessageID  string
	OpDate     string
	Category   string
	Amount     int64
	Status     Status
	VoiceURI   string
	OccurredAt time.Time
}
