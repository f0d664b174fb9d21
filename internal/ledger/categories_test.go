package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cats := NewCategories(store, "Categories")

	n, err := cats.SeedIfEmpty(ctx, domain.DefaultCategories)
	require.NoError(t, err)
	require.Equal(t, len(domain.DefaultCategories), n)

	rows := store.Rows("Categories")
	require.Equal(t, domain.CategoryColumns, rows[0])
	require.Len(t, rows, len(domain.DefaultCategories)+1)

	n, err = cats.SeedIfEmpty(ctx, domain.DefaultCategories)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, store.Rows("Categories"), len(domain.DefaultCategories)+1)
}

func TestSeedIfEmptyHeaderOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Append(ctx, "Categories", domain.CategoryColumns))

	n, err := NewCategories(store, "Categories").SeedIfEmpty(ctx, domain.DefaultCategories[:2])
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, store.Rows("Categories"), 3)
}

func TestListActiveSortsAndFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, row := range [][]string{
		domain.CategoryColumns,
		{"opt_fun", "Entertainment", "optional", "10", "TRUE"},
		{"must_b", "Bills", "must", "20", "yes"},
		{"must_a", "Apples", "must", "20", "да"},
		{"must_first", "Rent", "must", "5", "1"},
		{"hidden", "Hidden", "must", "1", "FALSE"},
		{"", "No id", "must", "1", "TRUE"},
		{"short", "Short row"},
		{"noorder", "No order", "reserve", "x", "TRUE"},
	} {
		require.NoError(t, store.Append(ctx, "Categories", row))
	}

	cats, err := NewCategories(store, "Categories").ListActive(ctx)
	require.NoError(t, err)

	var ids []string
	for _, c := range cats {
		ids = append(ids, c.CategoryID)
	}
	require.Equal(t, []string{"must_first", "must_a", "must_b", "opt_fun", "noorder"}, ids)
	require.Zero(t, cats[4].Order)
}

func TestByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewCategories(store, "Categories")
	_, err := repo.SeedIfEmpty(ctx, domain.DefaultCategories)
	require.NoError(t, err)

	cat, ok, err := repo.ByID(ctx, "must_products")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Groceries", cat.Name)

	_, ok, err = repo.ByID(ctx, "nope")
	require.NoError(t, err)
	require.False(t, ok)
}
