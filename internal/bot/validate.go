package bot

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
)

// MaxDateShiftDays is how far back an edited op_date may go.
const MaxDateShiftDays = 31

var (
	ErrInvalidAmount = errors.New("bot: amount must contain digits only")
	ErrInvalidDate   = errors.New("bot: date is not YYYY-MM-DD or DD.MM.YYYY")
	ErrDateInFuture  = errors.New("bot: date is in the future")
	ErrDateTooOld    = errors.New("bot: date is too old")
)

// ParseAmountInput accepts digits with optional whitespace anywhere
// ("3000", "3 000"). Decimals, signs and currency symbols are rejected.
func ParseAmountInput(s string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// ParseDateInput parses YYYY-MM-DD or DD.MM.YYYY and checks the edit window:
// no later than today and no earlier than MaxDateShiftDays before it.
func ParseDateInput(s string, today civil.Date) (civil.Date, error) {
	s = strings.TrimSpace(s)

	d, err := civil.ParseDate(s)
	if err != nil {
		t, perr := time.Parse("02.01.2006", s)
		if perr != nil {
			return civil.Date{}, ErrInvalidDate
		}
		d = civil.DateOf(t)
	}

	if d.After(today) {
		return civil.Date{}, ErrDateInFuture
	}
	if d.Before(today.AddDays(-MaxDateShiftDays)) {
		return civil.Date{}, ErrDateTooOld
	}
	return d, nil
}

// dateErrorText maps a date validation error onto its re-prompt.
func dateErrorText(err error) string {
	switch {
	case errors.Is(err, ErrDateInFuture):
		return msgDateInFuture
	case errors.Is(err, ErrDateTooOld):
		return msgDateTooOld
	default:
		return msgBadDate
	}
}
