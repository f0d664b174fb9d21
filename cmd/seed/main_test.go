package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/ledger"
)

type fakeTable struct {
	calls int
	err   error
}

func (f *fakeTable) EnsureTable(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestSeedEmptySpreadsheet(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	table := &fakeTable{}

	report, err := seed(ctx, ledger.NewJournal(store, "Journal"), ledger.NewCategories(store, "Categories"), table)
	require.NoError(t, err)

	assert.True(t, report.HeaderWritten)
	assert.Equal(t, len(domain.DefaultCategories), report.Categories)
	assert.True(t, report.AuditTable)
	assert.Equal(t, 1, table.calls)

	journal := store.Rows("Journal")
	require.Len(t, journal, 1)
	assert.Equal(t, domain.Columns, journal[0])
	assert.Len(t, store.Rows("Categories"), len(domain.DefaultCategories)+1)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	journal := ledger.NewJournal(store, "Journal")
	categories := ledger.NewCategories(store, "Categories")

	_, err := seed(ctx, journal, categories, nil)
	require.NoError(t, err)

	report, err := seed(ctx, journal, categories, nil)
	require.NoError(t, err)
	assert.False(t, report.HeaderWritten)
	assert.Zero(t, report.Categories)
	assert.False(t, report.AuditTable)
	assert.Len(t, store.Rows("Journal"), 1)
	assert.Len(t, store.Rows("Categories"), len(domain.DefaultCategories)+1)
}

func TestSeedAuditFailure(t *testing.T) {
	store := ledger.NewMemoryStore()
	_, err := seed(context.Background(), ledger.NewJournal(store, "Journal"), ledger.NewCategories(store, "Categories"),
		&fakeTable{err: errors.New("permission denied")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
