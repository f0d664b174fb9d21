package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// Entry is a record together with its current row position.
type Entry struct {
	Row    int
	Record domain.Record
}

// Journal is the repository over the journal sheet. Row 1 is the header,
// data starts at row 2.
type Journal struct {
	store Store
	sheet string
}

// NewJournal creates a journal repository on the given sheet.
func NewJournal(store Store, sheet string) *Journal {
	return &Journal{store: store, sheet: sheet}
}

// Sheet returns the sheet name the journal writes to.
func (j *Journal) Sheet() string { return j.sheet }

// EnsureHeader writes the column header when the sheet is completely empty.
// It reports whether the header was written.
func (j *Journal) EnsureHeader(ctx context.Context) (bool, error) {
	rows, err := j.store.ReadRange(ctx, j.sheet, "A1:"+domain.ColumnLetter(domain.ColumnCount-1)+"1")
	if err != nil {
		return false, fmt.Errorf("EnsureHeader: reading first row: %w", err)
	}
	if len(rows) > 0 {
		return false, nil
	}
	if err := j.store.Append(ctx, j.sheet, domain.Columns); err != nil {
		return false, fmt.Errorf("EnsureHeader: appending header: %w", err)
	}
	return true, nil
}

// Append writes one record at the end of the journal.
func (j *Journal) Append(ctx context.Context, rec domain.Record) error {
	if err := j.store.Append(ctx, j.sheet, rec.Row()); err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

// HasMessage scans the message_id column for an already ingested message.
func (j *Journal) HasMessage(ctx context.Context, messageID string) (bool, error) {
	want := normalizeID(messageID)
	if want == "" {
		return false, nil
	}
	values, err := j.store.ReadColumn(ctx, j.sheet, domain.ColumnLetter(domain.ColMessageID))
	if err != nil {
		return false, fmt.Errorf("HasMessage: reading message_id column: %w", err)
	}
	for i, v := range values {
		if i == 0 {
			continue // header
		}
		if sameID(v, want) {
			return true, nil
		}
	}
	return false, nil
}

// FindLastPending returns the newest pending row of the author. The scan runs
// oldest to newest and keeps the last match.
func (j *Journal) FindLastPending(ctx context.Context, authorID string) (Entry, bool, error) {
	rows, err := j.readAll(ctx)
	if err != nil {
		return Entry{}, false, fmt.Errorf("FindLastPending: %w", err)
	}

	var last Entry
	found := false
	for i, row := range rows {
		if i == 0 {
			continue
		}
		rec := domain.RecordFromRow(row)
		if sameID(rec.AuthorID, authorID) && rec.IsPending() {
			last = Entry{Row: i + 1, Record: rec}
			found = true
		}
	}
	return last, found, nil
}

// ListRecent returns up to limit non-canceled rows of the author, newest first.
func (j *Journal) ListRecent(ctx context.Context, authorID string, limit int) ([]Entry, error) {
	rows, err := j.readAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}

	var out []Entry
	for i := len(rows) - 1; i >= 1; i-- {
		rec := domain.RecordFromRow(rows[i])
		if !sameID(rec.AuthorID, authorID) || rec.IsCanceled() {
			continue
		}
		out = append(out, Entry{Row: i + 1, Record: rec})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Get reads a single row. The header row and empty rows are ErrRowNotFound.
func (j *Journal) Get(ctx context.Context, row int) (domain.Record, error) {
	if row < 2 {
		return domain.Record{}, ErrRowNotFound
	}
	rows, err := j.store.ReadRange(ctx, j.sheet, domain.RowRange(row))
	if err != nil {
		return domain.Record{}, fmt.Errorf("Get: reading row %d: %w", row, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return domain.Record{}, ErrRowNotFound
	}
	return domain.RecordFromRow(rows[0]), nil
}

// Mutable re-reads a row and refuses canceled ones.
func (j *Journal) Mutable(ctx context.Context, row int) (domain.Record, error) {
	rec, err := j.Get(ctx, row)
	if err != nil {
		return domain.Record{}, err
	}
	if rec.IsCanceled() {
		return rec, ErrCanceled
	}
	return rec, nil
}

// Resolve finalizes a pending row: category, status and needs_review are
// written together in one batch.
func (j *Journal) Resolve(ctx context.Context, row int, category string) error {
	cells := []Cell{
		j.cell(domain.ColCategory, row, domain.TextCell(category)),
		j.cell(domain.ColStatus, row, string(domain.StatusOK)),
		j.cell(domain.ColNeedsReview, row, domain.NeedsReviewFalse),
	}
	if err := j.store.WriteCells(ctx, cells); err != nil {
		return fmt.Errorf("Resolve: row %d: %w", row, err)
	}
	return nil
}

// UpdateAmount rewrites the amount column.
func (j *Journal) UpdateAmount(ctx context.Context, row int, amount int64) error {
	cells := []Cell{j.cell(domain.ColAmount, row, strconv.FormatInt(amount, 10))}
	if err := j.store.WriteCells(ctx, cells); err != nil {
		return fmt.Errorf("UpdateAmount: row %d: %w", row, err)
	}
	return nil
}

// UpdateDate rewrites op_date and the month_key derived from it.
func (j *Journal) UpdateDate(ctx context.Context, row int, opDate string) error {
	cells := []Cell{
		j.cell(domain.ColOpDate, row, opDate),
		j.cell(domain.ColMonthKey, row, domain.MonthKey(opDate)),
	}
	if err := j.store.WriteCells(ctx, cells); err != nil {
		return fmt.Errorf("UpdateDate: row %d: %w", row, err)
	}
	return nil
}

// UpdateCategory rewrites the category of a finalized row.
func (j *Journal) UpdateCategory(ctx context.Context, row int, category string) error {
	cells := []Cell{j.cell(domain.ColCategory, row, domain.TextCell(category))}
	if err := j.store.WriteCells(ctx, cells); err != nil {
		return fmt.Errorf("UpdateCategory: row %d: %w", row, err)
	}
	return nil
}

// Cancel marks the row canceled by the user.
func (j *Journal) Cancel(ctx context.Context, row int) error {
	cells := []Cell{
		j.cell(domain.ColStatus, row, string(domain.StatusCanceled)),
		j.cell(domain.ColError, row, domain.ErrorUserCanceled),
	}
	if err := j.store.WriteCells(ctx, cells); err != nil {
		return fmt.Errorf("Cancel: row %d: %w", row, err)
	}
	return nil
}

func (j *Journal) readAll(ctx context.Context) ([][]string, error) {
	rows, err := j.store.ReadRange(ctx, j.sheet, domain.JournalRange())
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return rows, nil
}

func (j *Journal) cell(col, row int, value string) Cell {
	return Cell{Sheet: j.sheet, Column: domain.ColumnLetter(col), Row: row, Value: value}
}

// normalizeID strips whitespace and grouping separators a spreadsheet may add
// when it renders a numeric id.
func normalizeID(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', ',', '\t':
			return -1
		}
		return r
	}, v)
}

func sameID(stored, want string) bool {
	a, b := normalizeID(stored), normalizeID(want)
	return a != "" && a == b
}
