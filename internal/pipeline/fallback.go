package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// digitGroup matches a run of digits with optional internal spaces ("5 000").
// Line breaks end a group.
var digitGroup = regexp.MustCompile(`\d[\d \x{00a0}\x{202f}]*`)

// FallbackExtractor is the deterministic extractor: today's date, the last
// group of digits as the amount, no category.
type FallbackExtractor struct{}

// Extract implements Extractor. It never returns an error.
func (FallbackExtractor) Extract(ctx context.Context, text string, today civil.Date) (Candidate, error) {
	return Candidate{
		OpDate:      today,
		Amount:      FallbackAmount(text),
		NeedsReview: true,
	}, nil
}

// FallbackAmount returns the last group of digits in text with spaces removed,
// or 0 when there is none.
func FallbackAmount(text string) int64 {
	matches := digitGroup.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0
	}
	last := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, matches[len(matches)-1])

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
