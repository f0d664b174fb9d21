package domain

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a ledger row.
type Status string

const (
	// StatusPending marks a record that still needs a category from the user.
	StatusPending Status = "pending"
	// StatusOK marks a finalized record.
	StatusOK Status = "ok"
	// StatusCanceled is terminal: the row must not be mutated once set.
	StatusCanceled Status = "canceled"
)

// Source tells how the record reached the bot.
type Source string

const (
	SourceText  Source = "text"
	SourceVoice Source = "voice"
)

// Values stored in the needs_review column. The sheet keeps them as text.
const (
	NeedsReviewTrue  = "TRUE"
	NeedsReviewFalse = "FALSE"
)

// ErrorUserCanceled is written to the error column when the user cancels a row.
const ErrorUserCanceled = "user_canceled"

const (
	// DateLayout is the canonical op_date layout. month_key is its first 7 characters.
	DateLayout = "2006-01-02"
	// CreatedAtLayout is the created_at layout.
	CreatedAtLayout = "2006-01-02 15:04:05"
)

// Record is one ledger row. Field order in the sheet is fixed by Columns.
type Record struct {
	CreatedAt   string // "YYYY-MM-DD HH:MM:SS", write-once
	OpDate      string // "YYYY-MM-DD"
	Category    string // display name, empty while pending
	Amount      int64
	CommentRaw  string
	Source      Source
	AuthorID    string
	MessageID   string
	Status      Status
	NeedsReview string // NeedsReviewTrue | NeedsReviewFalse
	MonthKey    string // "YYYY-MM", always OpDate[:7]
	Error       string
}

// IsPending reports whether the record awaits disambiguation.
func (r Record) IsPending() bool { return r.Status == StatusPending }

// IsCanceled reports whether the record reached the terminal status.
func (r Record) IsCanceled() bool { return r.Status == StatusCanceled }

// Label renders the short "date · category · amount" form used in lists.
func (r Record) Label() string {
	category := r.Category
	if category == "" {
		category = "?"
	}
	return r.OpDate + " · " + category + " · " + strconv.FormatInt(r.Amount, 10)
}

// MonthKey derives the YYYY-MM aggregation key from an op_date string.
func MonthKey(opDate string) string {
	if len(opDate) < 7 {
		return opDate
	}
	return opDate[:7]
}

// ParseAmountCell reads an amount cell written by the store. Formatted values may
// carry grouping spaces (including NBSP) or a fractional part; the fraction is dropped.
func ParseAmountCell(v string) int64 {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, strings.TrimSpace(v))
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// opDateLayouts are the renderings a date cell may come back in.
var opDateLayouts = []string{"2006-01-02", "02.01.2006", "2006-01-02 15:04:05"}

// NormalizeOpDate turns a date cell back into YYYY-MM-DD. Values it cannot
// parse are returned trimmed but otherwise unchanged.
func NormalizeOpDate(v string) string {
	v = strings.TrimSpace(v)
	for _, layout := range opDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return v
}
