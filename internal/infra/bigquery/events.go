package bigquery

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// LedgerEventRow is one row of the ledger_events audit table.
type LedgerEventRow struct {
	EventID   string `bigquery:"event_id"`   // REQUIRED
	EventType string `bigquery:"event_type"` // REQUIRED
	RowIndex  int64  `bigquery:"row_index"`  // REQUIRED, 0 for appends

	AuthorID  string              `bigquery:"author_id"`  // REQUIRED
	MessageID bigquery.NullString `bigquery:"message_id"` // NULLABLE

	OpDate   bigquery.NullDate   `bigquery:"op_date"`   // NULLABLE
	Category bigquery.NullString `bigquery:"category"`  // NULLABLE
	Amount   int64               `bigquery:"amount"`    // REQUIRED
	Status   string              `bigquery:"status"`    // REQUIRED
	VoiceURI bigquery.NullString `bigquery:"voice_uri"` // NULLABLE

	OccurredTS bigquery.NullTimestamp `bigquery:"occurred_ts"` // REQUIRED
}

// NewLedgerEventRow converts a domain event into a table row with a fresh id.
func NewLedgerEventRow(ev domain.LedgerEvent) *LedgerEventRow {
	row := &LedgerEventRow{
		EventID:    uuid.New().String(),
		EventType:  string(ev.Type),
		RowIndex:   int64(ev.Row),
		AuthorID:   ev.AuthorID,
		MessageID:  nullString(ev.MessageID),
		Category:   nullString(ev.Category),
		Amount:     ev.Amount,
		Status:     string(ev.Status),
		VoiceURI:   nullString(ev.VoiceURI),
		OccurredTS: bigquery.NullTimestamp{Timestamp: ev.OccurredAt.UTC(), Valid: !ev.OccurredAt.IsZero()},
	}
	if d, err := civil.ParseDate(ev.OpDate); err == nil {
		row.OpDate = bigquery.NullDate{Date: d, Valid: true}
	}
	return row
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
