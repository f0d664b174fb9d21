package bot

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountInput(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "3000", want: 3000},
		{in: "3 000", want: 3000},
		{in: " 4500 ", want: 4500},
		{in: "0", want: 0},
		{in: "3000.5", wantErr: true},
		{in: "3,000", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "500₽", wantErr: true},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmountInput(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateInputWindow(t *testing.T) {
	today := civil.Date{Year: 2026, Month: time.October, Day: 18}

	tests := []struct {
		name    string
		in      string
		want    civil.Date
		wantErr error
	}{
		{name: "today", in: "2026-10-18", want: today},
		{name: "exactly 31 days ago", in: today.AddDays(-31).String(), want: today.AddDays(-31)},
		{name: "dotted format", in: "01.10.2026", want: civil.Date{Year: 2026, Month: time.October, Day: 1}},
		{name: "tomorrow", in: "2026-10-19", wantErr: ErrDateInFuture},
		{name: "32 days ago", in: today.AddDays(-32).String(), wantErr: ErrDateTooOld},
		{name: "garbage", in: "yesterday", wantErr: ErrInvalidDate},
		{name: "impossible date", in: "31.02.2026", wantErr: ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateInput(tt.in, today)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateErrorText(t *testing.T) {
	assert.Equal(t, msgDateInFuture, dateErrorText(ErrDateInFuture))
	assert.Equal(t, msgDateTooOld, dateErrorText(ErrDateTooOld))
	assert.Equal(t, msgBadDate, dateErrorText(ErrInvalidDate))
}
