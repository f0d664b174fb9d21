package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{in: "A:L", want: Range{FirstCol: 0, LastCol: 11}},
		{in: "H:H", want: Range{FirstCol: 7, LastCol: 7}},
		{in: "A5:L5", want: Range{FirstCol: 0, LastCol: 11, FirstRow: 5, LastRow: 5}},
		{in: "Journal!C7", want: Range{FirstCol: 2, LastCol: 2, FirstRow: 7, LastRow: 7}},
		{in: "L:A", wantErr: true},
		{in: "A0", wantErr: true},
		{in: "5:5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStoreAppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, "S", []string{"a", "b", "c"}))
	require.NoError(t, s.Append(ctx, "S", []string{"d", "", ""}))
	require.NoError(t, s.Append(ctx, "S", []string{"g", "h", "i"}))

	rows, err := s.ReadRange(ctx, "S", "A:C")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "b", "c"}, {"d"}, {"g", "h", "i"}}, rows)

	rows, err = s.ReadRange(ctx, "S", "B2:C3")
	require.NoError(t, err)
	require.Equal(t, [][]string{nil, {"h", "i"}}, rows)

	col, err := s.ReadColumn(ctx, "S", "B")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "", "h"}, col)

	rows, err = s.ReadRange(ctx, "S", "A9:C9")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestMemoryStoreWriteCells(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "S", []string{"a"}))

	err := s.WriteCells(ctx, []Cell{
		{Sheet: "S", Column: "C", Row: 1, Value: "x"},
		{Sheet: "S", Column: "B", Row: 3, Value: "y"},
	})
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "", "x"}, nil, {"", "y"}}, s.Rows("S"))

	err = s.WriteCells(ctx, []Cell{
		{Sheet: "S", Column: "A", Row: 1, Value: "changed"},
		{Sheet: "S", Column: "1", Row: 1, Value: "bad"},
	})
	require.Error(t, err)
	require.Equal(t, "a", s.Rows("S")[0][0], "no cell is written when an address is invalid")
}

func TestMemoryStoreAppendSkipsTrailingBlankRows(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Append(ctx, "S", []string{"a"}))
	require.NoError(t, s.WriteCells(ctx, []Cell{{Sheet: "S", Column: "A", Row: 4, Value: ""}}))
	require.NoError(t, s.Append(ctx, "S", []string{"b"}))

	rows, err := s.ReadRange(ctx, "S", "A:A")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}, {"b"}}, rows)
}
