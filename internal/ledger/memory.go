package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store that behaves like a
// spreadsheet: rows are sparse, reads trim trailing empties and return copies.
// Like USER_ENTERED input, a leading apostrophe marks text and is not stored.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sheets: make(map[string][][]string),
	}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, sheet string, row []string) error {
	if sheet == "" {
		return fmt.Errorf("MemoryStore.Append: sheet name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := trimRows(s.sheets[sheet])
	rowCopy := make([]string, len(row))
	for i, v := range row {
		rowCopy[i] = enteredValue(v)
	}
	s.sheets[sheet] = append(rows, rowCopy)
	return nil
}

// ReadRange implements Store.
func (s *MemoryStore) ReadRange(ctx context.Context, sheet, a1 string) ([][]string, error) {
	rng, err := ParseRange(a1)
	if err != nil {
		return nil, fmt.Errorf("MemoryStore.ReadRange: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.sheets[sheet]
	first := 1
	if rng.FirstRow > 0 {
		first = rng.FirstRow
	}
	last := len(rows)
	if rng.LastRow > 0 && rng.LastRow < last {
		last = rng.LastRow
	}

	var out [][]string
	for r := first; r <= last; r++ {
		src := rows[r-1]
		var row []string
		for c := rng.FirstCol; c <= rng.LastCol && c < len(src); c++ {
			row = append(row, src[c])
		}
		out = append(out, trimCells(row))
	}
	return trimRows(out), nil
}

// ReadColumn implements Store.
func (s *MemoryStore) ReadColumn(ctx context.Context, sheet, column string) ([]string, error) {
	rows, err := s.ReadRange(ctx, sheet, column+":"+column)
	if err != nil {
		return nil, fmt.Errorf("MemoryStore.ReadColumn: %w", err)
	}
	values := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			values[i] = row[0]
		}
	}
	return values, nil
}

// WriteCells implements Store. All addresses are validated before any write.
func (s *MemoryStore) WriteCells(ctx context.Context, cells []Cell) error {
	type target struct {
		col, row int
	}
	targets := make([]target, len(cells))
	for i, c := range cells {
		rng, err := ParseRange(c.A1())
		if err != nil || rng.FirstRow == 0 {
			return fmt.Errorf("MemoryStore.WriteCells: bad address %q", c.A1())
		}
		targets[i] = target{col: rng.FirstCol, row: rng.FirstRow}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range cells {
		t := targets[i]
		rows := s.sheets[c.Sheet]
		for len(rows) < t.row {
			rows = append(rows, nil)
		}
		row := rows[t.row-1]
		for len(row) <= t.col {
			row = append(row, "")
		}
		row[t.col] = enteredValue(c.Value)
		rows[t.row-1] = row
		s.sheets[c.Sheet] = rows
	}
	return nil
}

// enteredValue drops the apostrophe text marker the way the sheet does.
func enteredValue(v string) string {
	return strings.TrimPrefix(v, "'")
}

// Rows returns a copy of every row of a sheet, for tests and dry runs.
func (s *MemoryStore) Rows(sheet string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]string, len(s.sheets[sheet]))
	for i, row := range s.sheets[sheet] {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func trimCells(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	if n == 0 {
		return nil
	}
	return row[:n]
}

func trimRows(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && len(trimCells(rows[n-1])) == 0 {
		n--
	}
	return rows[:n]
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
