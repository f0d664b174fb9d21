// Package sheets implements the ledger store on the Google Sheets values API.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/ledger-bot/internal/ledger"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertRows            = "INSERT_ROWS"
)

// Store implements ledger.Store for one spreadsheet. Every call is bounded by
// the configured timeout.
type Store struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	timeout       time.Duration
}

// NewStore creates a Sheets-backed store. An empty credentialsPath uses
// application default credentials.
func NewStore(ctx context.Context, credentialsPath, spreadsheetID string, timeout time.Duration) (*Store, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	opts = append(opts, option.WithScopes(gsheets.SpreadsheetsScope))

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating sheets service: %w", err)
	}
	return NewStoreWithService(svc, spreadsheetID, timeout), nil
}

// NewStoreWithService wraps an existing service.
func NewStoreWithService(svc *gsheets.Service, spreadsheetID string, timeout time.Duration) *Store {
	return &Store{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
	}
}

// Append implements ledger.Store.
func (s *Store) Append(ctx context.Context, sheet string, row []string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	body := &gsheets.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
	_, err := s.values.Append(s.spreadsheetID, qualify(sheet, "A:Z"), body).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("Append: %s: %w", sheet, err)
	}
	return nil
}

// ReadRange implements ledger.Store.
func (s *Store) ReadRange(ctx context.Context, sheet, a1 string) ([][]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.values.Get(s.spreadsheetID, qualify(sheet, a1)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ReadRange: %s!%s: %w", sheet, a1, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	return rows, nil
}

// ReadColumn implements ledger.Store.
func (s *Store) ReadColumn(ctx context.Context, sheet, column string) ([]string, error) {
	rows, err := s.ReadRange(ctx, sheet, column+":"+column)
	if err != nil {
		return nil, fmt.Errorf("ReadColumn: %w", err)
	}
	values := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			values[i] = row[0]
		}
	}
	return values, nil
}

// WriteCells implements ledger.Store with a single values.batchUpdate request.
// Sheets applies a batch as one request but does not promise all-or-nothing
// across ranges; callers replay the full cell set on failure.
func (s *Store) WriteCells(ctx context.Context, cells []ledger.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data := make([]*gsheets.ValueRange, 0, len(cells))
	for _, c := range cells {
		data = append(data, &gsheets.ValueRange{
			Range:  qualify(c.Sheet, fmt.Sprintf("%s%d", c.Column, c.Row)),
			Values: [][]interface{}{{c.Value}},
		})
	}

	req := &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputUserEntered,
		Data:             data,
	}
	if _, err := s.values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("WriteCells: %d cells: %w", len(cells), err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// qualify prefixes a range with the sheet name, quoting names that need it.
func qualify(sheet, a1 string) string {
	if sheet == "" {
		return a1
	}
	if strings.ContainsAny(sheet, " '!:") || !isASCII(sheet) {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + a1
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

// Ensure Store implements ledger.Store interface.
var _ ledger.Store = (*Store)(nil)
