package pipeline

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// transformModelOutput converts the raw model object into a candidate. It
// never fails: a bad date becomes today, a bad amount becomes 0 and an
// unknown category becomes empty, which sends the record to review.
func transformModelOutput(obj map[string]interface{}, today civil.Date, matcher *CategoryMatcher) Candidate {
	c := Candidate{
		OpDate:      today,
		Amount:      CoerceAmount(obj["amount"]),
		NeedsReview: true,
	}

	if s := getStringField(obj, "op_date"); s != "" {
		if d, err := civil.ParseDate(s); err == nil && d.IsValid() {
			c.OpDate = d
		}
	}

	if label := getStringField(obj, "category"); label != "" {
		if cat, ok := matcher.Match(label); ok {
			c.Category = cat.Name
		}
	}

	if v, ok := obj["needs_review"].(bool); ok {
		c.NeedsReview = v
	}
	if c.Category == "" {
		c.NeedsReview = true
	}
	return c
}

func getStringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// CoerceAmount converts a model- or user-supplied amount into whole units.
// Fractions are truncated; negative, missing or non-numeric values become 0.
func CoerceAmount(v interface{}) int64 {
	var d decimal.Decimal
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		d = decimal.NewFromFloat(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int64:
		d = decimal.NewFromInt(val)
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return 0
		}
		d = parsed
	case string:
		parsed, ok := parseAmountString(val)
		if !ok {
			return 0
		}
		d = parsed
	default:
		return 0
	}

	if d.IsNegative() {
		return 0
	}
	return d.IntPart()
}

// parseAmountString accepts "1200", "1 200", "1200.50" and "1 200,50".
func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
