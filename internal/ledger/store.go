// Package ledger holds the row-oriented store contract and the journal and
// category repositories built on it. Row identity is positional: a record is
// addressed by its 1-based row index, recomputed by scanning on every request.
package ledger

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrRowNotFound is returned when the addressed row is empty or out of range.
	ErrRowNotFound = errors.New("ledger: row not found")
	// ErrCanceled is returned when a mutation targets a canceled row.
	ErrCanceled = errors.New("ledger: row is canceled")
)

// Cell addresses a single value for a batched write.
type Cell struct {
	Sheet  string
	Column string // A1 column letter
	Row    int    // 1-based
	Value  string
}

// A1 renders the cell address, e.g. "Journal!C5".
func (c Cell) A1() string {
	return c.Sheet + "!" + c.Column + strconv.Itoa(c.Row)
}

// Store is the Ledger Store Interface: a row-oriented table with no keys
// and no transactions.
type Store interface {
	// Append inserts a row after the last non-empty row of the sheet.
	Append(ctx context.Context, sheet string, row []string) error
	// ReadRange returns rows of a rectangular A1 region ("A:L", "A5:L5").
	// Trailing empty cells and rows are omitted.
	ReadRange(ctx context.Context, sheet, a1 string) ([][]string, error)
	// ReadColumn returns every value of a single column, one per row.
	ReadColumn(ctx context.Context, sheet, column string) ([]string, error)
	// WriteCells writes all cells in one request. Implementations that cannot
	// guarantee all-or-nothing may leave a prefix applied on failure.
	WriteCells(ctx context.Context, cells []Cell) error
}
