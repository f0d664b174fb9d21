package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// Range is a parsed A1 region. Columns are zero-based, rows are 1-based and
// 0 means unbounded.
type Range struct {
	FirstCol, LastCol int
	FirstRow, LastRow int
}

// ParseRange parses "A:L", "H:H", "A5:L5", "C7" and the "Sheet!A:L" form.
func ParseRange(a1 string) (Range, error) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	start, end, found := strings.Cut(a1, ":")
	if !found {
		end = start
	}

	c1, r1, err := parseRef(start)
	if err != nil {
		return Range{}, fmt.Errorf("ParseRange: %q: %w", a1, err)
	}
	c2, r2, err := parseRef(end)
	if err != nil {
		return Range{}, fmt.Errorf("ParseRange: %q: %w", a1, err)
	}
	if c2 < c1 || (r1 > 0 && r2 > 0 && r2 < r1) {
		return Range{}, fmt.Errorf("ParseRange: %q: inverted range", a1)
	}
	return Range{FirstCol: c1, LastCol: c2, FirstRow: r1, LastRow: r2}, nil
}

func parseRef(ref string) (col, row int, err error) {
	ref = strings.TrimSpace(ref)
	i := 0
	for i < len(ref) && (ref[i] < '0' || ref[i] > '9') {
		i++
	}
	col = domain.ColumnIndex(ref[:i])
	if col < 0 {
		return 0, 0, fmt.Errorf("bad column in %q", ref)
	}
	if i == len(ref) {
		return col, 0, nil
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad row in %q", ref)
	}
	return col, row, nil
}
