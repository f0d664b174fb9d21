package ledger

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger-bot/internal/domain"
)

// Categories is the read-mostly repository over the category sheet (A:E).
type Categories struct {
	store Store
	sheet string
}

// NewCategories creates a category repository on the given sheet.
func NewCategories(store Store, sheet string) *Categories {
	return &Categories{store: store, sheet: sheet}
}

// ListActive returns active categories sorted by section, order, name.
func (c *Categories) ListActive(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.store.ReadRange(ctx, c.sheet, "A:E")
	if err != nil {
		return nil, fmt.Errorf("ListActive: reading categories: %w", err)
	}

	var out []domain.Category
	for i, row := range rows {
		if i == 0 || len(row) < len(domain.CategoryColumns) {
			continue
		}
		cat := domain.Category{
			CategoryID: strings.TrimSpace(row[0]),
			Name:       strings.TrimSpace(row[1]),
			Section:    strings.TrimSpace(row[2]),
			IsActive:   parseActive(row[4]),
		}
		if n, err := strconv.Atoi(strings.TrimSpace(row[3])); err == nil {
			cat.Order = n
		}
		if cat.CategoryID == "" || cat.Name == "" || !cat.IsActive {
			continue
		}
		out = append(out, cat)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Name < b.Name
	})
	return out, nil
}

// ByID finds an active category by its stable id.
func (c *Categories) ByID(ctx context.Context, id string) (domain.Category, bool, error) {
	cats, err := c.ListActive(ctx)
	if err != nil {
		return domain.Category{}, false, fmt.Errorf("ByID: %w", err)
	}
	for _, cat := range cats {
		if cat.CategoryID == id {
			return cat, true, nil
		}
	}
	return domain.Category{}, false, nil
}

// SeedIfEmpty writes the header to a completely empty sheet and then the
// template, unless the sheet already holds at least one data row. It returns
// the number of categories written.
func (c *Categories) SeedIfEmpty(ctx context.Context, template []domain.Category) (int, error) {
	rows, err := c.store.ReadRange(ctx, c.sheet, "A:E")
	if err != nil {
		return 0, fmt.Errorf("SeedIfEmpty: reading categories: %w", err)
	}
	if len(rows) == 0 {
		if err := c.store.Append(ctx, c.sheet, domain.CategoryColumns); err != nil {
			return 0, fmt.Errorf("SeedIfEmpty: writing header: %w", err)
		}
	} else if len(rows) > 1 {
		return 0, nil
	}

	for i, cat := range template {
		active := "FALSE"
		if cat.IsActive {
			active = "TRUE"
		}
		row := []string{cat.CategoryID, cat.Name, cat.Section, strconv.Itoa(cat.Order), active}
		if err := c.store.Append(ctx, c.sheet, row); err != nil {
			return i, fmt.Errorf("SeedIfEmpty: writing %s: %w", cat.CategoryID, err)
		}
	}
	return len(template), nil
}

func parseActive(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y", "да":
		return true
	}
	return false
}
