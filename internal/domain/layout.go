package domain

import "strconv"

// Journal column positions. The order is a durable contract with the sheet:
// every positional read and write depends on it.
const (
	ColCreatedAt = iota
	ColOpDate
	ColCategory
	ColAmount
	ColCommentRaw
	ColSource
	ColAuthorID
	ColMessageID
	ColStatus
	ColNeedsReview
	ColMonthKey
	ColError

	// ColumnCount is the width of a journal row.
	ColumnCount
)

// Columns is the journal header, in sheet order.
var Columns = []string{
	"created_at",
	"op_date",
	"category",
	"amount",
	"comment_raw",
	"source",
	"author_id",
	"message_id",
	"status",
	"needs_review",
	"month_key",
	"error",
}

// ColumnLetter converts a zero-based column index to its A1 letter (0 -> A, 26 -> AA).
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// ColumnIndex converts an A1 column letter to a zero-based index. It returns -1
// for anything that is not a column letter.
func ColumnIndex(letter string) int {
	if letter == "" {
		return -1
	}
	n := 0
	for _, c := range letter {
		switch {
		case c >= 'A' && c <= 'Z':
			n = n*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			n = n*26 + int(c-'a'+1)
		default:
			return -1
		}
	}
	return n - 1
}

// JournalRange is the A1 range covering every journal column ("A:L").
func JournalRange() string {
	last := ColumnLetter(ColumnCount - 1)
	return "A:" + last
}

// RowRange is the A1 range covering a single journal row ("A5:L5").
func RowRange(row int) string {
	r := strconv.Itoa(row)
	return "A" + r + ":" + ColumnLetter(ColumnCount-1) + r
}

// TextCell keeps free text from being evaluated when the sheet parses input
// as USER_ENTERED: values that would start a formula, or that already start
// with the apostrophe text marker, get a leading apostrophe.
func TextCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\'':
		return "'" + v
	}
	return v
}

// Row flattens the record into sheet order. Free text columns go through
// TextCell.
func (r Record) Row() []string {
	row := make([]string, ColumnCount)
	row[ColCreatedAt] = r.CreatedAt
	row[ColOpDate] = r.OpDate
	row[ColCategory] = TextCell(r.Category)
	row[ColAmount] = strconv.FormatInt(r.Amount, 10)
	row[ColCommentRaw] = TextCell(r.CommentRaw)
	row[ColSource] = string(r.Source)
	row[ColAuthorID] = r.AuthorID
	row[ColMessageID] = r.MessageID
	row[ColStatus] = string(r.Status)
	row[ColNeedsReview] = r.NeedsReview
	row[ColMonthKey] = r.MonthKey
	row[ColError] = TextCell(r.Error)
	return row
}

// RecordFromRow rebuilds a record from a sheet row. The store trims trailing
// empty cells, so short rows are expected and read as empty strings.
func RecordFromRow(row []string) Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		CreatedAt:   cell(ColCreatedAt),
		OpDate:      NormalizeOpDate(cell(ColOpDate)),
		Category:    cell(ColCategory),
		Amount:      ParseAmountCell(cell(ColAmount)),
		CommentRaw:  cell(ColCommentRaw),
		Source:      Source(cell(ColSource)),
		AuthorID:    cell(ColAuthorID),
		MessageID:   cell(ColMessageID),
		Status:      Status(cell(ColStatus)),
		NeedsReview: cell(ColNeedsReview),
		MonthKey:    cell(ColMonthKey),
		Error:       cell(ColError),
	}
}
