package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

const defaultInsertTimeout = 10 * time.Second

// EventSink writes ledger events to BigQuery. It holds a shared client.
type EventSink struct {
	client  *bigquery.Client
	table   string // fully qualified `project.dataset.table`
	timeout time.Duration
}

// NewEventSink creates a sink with its own client.
func NewEventSink(ctx context.Context, projectID, datasetID, tableID string) (*EventSink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewEventSink: creating client: %w", err)
	}
	return NewEventSinkWithClient(client, projectID, datasetID, tableID), nil
}

// NewEventSinkWithClient creates a sink on an existing client.
func NewEventSinkWithClient(client *bigquery.Client, projectID, datasetID, tableID string) *EventSink {
	return &EventSink{
		client:  client,
		table:   qualifiedTable(projectID, datasetID, tableID),
		timeout: defaultInsertTimeout,
	}
}

// Close closes the BigQuery client connection.
func (s *EventSink) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Emit inserts one event. Uses DML INSERT to avoid streaming buffer issues.
func (s *EventSink) Emit(ctx context.Context, ev domain.LedgerEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := NewLedgerEventRow(ev)
	q := s.client.Query(insertEventSQL(s.table))
	q.Parameters = eventParameters(row)

	if err := runAndWait(ctx, q); err != nil {
		return fmt.Errorf("Emit: %s: %w", ev.Type, err)
	}
	return nil
}

// EnsureTable creates the audit table when it does not exist.
func (s *EventSink) EnsureTable(ctx context.Context) error {
	if err := runAndWait(ctx, s.client.Query(createEventsTableSQL(s.table))); err != nil {
		return fmt.Errorf("EnsureTable: %w", err)
	}
	return nil
}

func runAndWait(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func qualifiedTable(projectID, datasetID, tableID string) string {
	return "`" + projectID + "." + datasetID + "." + tableID + "`"
}

func insertEventSQL(table string) string {
	return `
		INSERT INTO ` + table + ` (
			event_id, event_type, row_index,
			author_id, message_id,
			op_date, category, amount, status, voice_uri,
			occurred_ts
		)
		VALUES (
			@event_id, @event_type, @row_index,
			@author_id, @message_id,
			@op_date, @category, @amount, @status, @voice_uri,
			@occurred_ts
		)
	`
}

func createEventsTableSQL(table string) string {
	return `
		CREATE TABLE IF NOT EXISTS ` + table + ` (
			event_id     STRING NOT NULL,
			event_type   STRING NOT NULL,
			row_index    INT64 NOT NULL,
			author_id    STRING NOT NULL,
			message_id   STRING,
			op_date      DATE,
			category     STRING,
			amount       INT64 NOT NULL,
			status       STRING NOT NULL,
			voice_uri    STRING,
			occurred_ts  TIMESTAMP NOT NULL
		)
		PARTITION BY DATE(occurred_ts)
	`
}

func eventParameters(row *LedgerEventRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "event_id", Value: row.EventID},
		{Name: "event_type", Value: row.EventType},
		{Name: "row_index", Value: row.RowIndex},
		{Name: "author_id", Value: row.AuthorID},
		{Name: "message_id", Value: row.MessageID},
		{Name: "op_date", Value: row.OpDate},
		{Name: "category", Value: row.Category},
		{Name: "amount", Value: row.Amount},
		{Name: "status", Value: row.Status},
		{Name: "voice_uri", Value: row.VoiceURI},
		{Name: "occurred_ts", Value: row.OccurredTS},
	}
}
