package bot

import (
	"fmt"
	"html"
	"strconv"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/ledger"
)

// Callback payloads.
const (
	cbCategoryPrefix     = "cat:"
	cbEditCategoryPrefix = "editcat:"
	cbEditRowPrefix      = "edit:row:"
	cbEditActionPrefix   = "edit:action:"
	cbEditDone           = "edit:done"
	cbEditBack           = "edit:back"
	cbEditConfirmCancel  = "edit:confirm_cancel"

	actionDate     = "date"
	actionAmount   = "amount"
	actionCategory = "category"
	actionCancel   = "cancel"
)

// User-facing texts.
const (
	msgHelp = "Send an expense or income as text or a voice note, for example <b>groceries 3000</b> or <b>salary 120000 yesterday</b>.\n\n" +
		"If I am not sure about the category I will ask you to pick one.\n\n" +
		"/edit - change or cancel one of your recent records\n" +
		"/cancel - leave the edit menu"
	msgUnknownCommand = "Unknown command.\n\n" + msgHelp

	msgDuplicate      = "This message is already recorded. Duplicate skipped ✅"
	msgVoiceDuplicate = "This voice note is already recorded. Duplicate skipped ✅"
	msgChooseCategory = "Choose a category:"
	msgNoCategories   = "Saved as pending, but the category list is unavailable. Use /edit to set the category later."
	msgStoreFailure   = "Could not reach the ledger. Please try again in a minute."
	msgPendingMissing = "Could not find a record to update. Please send the message again."
	msgUnknownCat     = "Unknown category"

	msgVoiceUnavailable = "Voice recognition is unavailable. Send the amount as text or record the voice note again."
	msgVoiceDownload    = "Could not download the voice note. Please send it again."
	msgVoiceNotHeard    = "Could not recognize the voice note. Send the amount as text or record it again."

	msgEditNoRows      = "No records of yours to edit."
	msgEditChooseRow   = "Editing: choose one of your last %d records."
	msgEditWhat        = "<b>What to change?</b>"
	msgEditAmount      = "Enter the new amount as a number:"
	msgEditDate        = "Enter the new date as YYYY-MM-DD or DD.MM.YYYY:"
	msgEditCategory    = "Choose the new category:"
	msgEditConfirm     = "Cancel this record?"
	msgEditCanceled    = "Record canceled ✅"
	msgEditFinished    = "Editing finished ✅"
	msgEditClosed      = "Editing closed."
	msgEditUnavailable = "This record is no longer available for editing."
	msgEditStale       = "This menu is no longer active. Run /edit again."
	msgEditNoSession   = "Nothing to cancel."
	msgEditExpired     = "The edit menu was lost. Run /edit again."

	msgBadAmount     = "Enter the amount as digits only, for example: 3000"
	msgBadDate       = "Enter the date as YYYY-MM-DD or DD.MM.YYYY, for example: 2026-02-09"
	msgDateInFuture  = "The date is in the future. Enter a date no later than today."
	msgDateTooOld    = "The date is too old. Records can be moved back at most 31 days."
	msgToastDone     = "Done ✅"
	msgToastCanceled = "Canceled ✅"
)

func (h *Handler) money(amount int64) string {
	return strconv.FormatInt(amount, 10) + h.opts.CurrencySymbol
}

// savedText confirms a finalized record.
func (h *Handler) savedText(opDate, category string, amount int64) string {
	return fmt.Sprintf("Saved ✅ %s · %s · %s", html.EscapeString(opDate), html.EscapeString(category), h.money(amount))
}

func recognizedText(transcript string) string {
	return "Recognized: \"" + html.EscapeString(transcript) + "\"."
}

func noAmountText(transcript string) string {
	return "Recognized: \"" + html.EscapeString(transcript) + "\", but found no amount.\n" +
		"Send the amount as text or record the voice note again."
}

// cardText renders the action card of the edited record.
func (h *Handler) cardText(rec domain.Record) string {
	category := rec.Category
	if category == "" {
		category = "?"
	}
	return fmt.Sprintf("%s · %s · %s\n\n%s",
		html.EscapeString(rec.OpDate), html.EscapeString(category), h.money(rec.Amount), msgEditWhat)
}

func (h *Handler) flashAmount(amount int64) string {
	return "✅ Amount updated: <b>" + h.money(amount) + "</b>"
}

func flashDate(opDate string) string {
	return "✅ Date updated: <b>" + html.EscapeString(opDate) + "</b>"
}

func flashCategory(name string) string {
	return "✅ Category updated: <b>" + html.EscapeString(name) + "</b>"
}

// categoryButtons lays categories out two per row.
func categoryButtons(cats []domain.Category, prefix string) [][]Button {
	var rows [][]Button
	for i := 0; i < len(cats); i += 2 {
		row := []Button{{Text: cats[i].Name, Data: prefix + cats[i].CategoryID}}
		if i+1 < len(cats) {
			row = append(row, Button{Text: cats[i+1].Name, Data: prefix + cats[i+1].CategoryID})
		}
		rows = append(rows, row)
	}
	return rows
}

func rowButtons(entries []ledger.Entry) [][]Button {
	rows := make([][]Button, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []Button{{Text: e.Record.Label(), Data: cbEditRowPrefix + strconv.Itoa(e.Row)}})
	}
	return rows
}

func actionButtons() [][]Button {
	return [][]Button{
		{{Text: "Date", Data: cbEditActionPrefix + actionDate}, {Text: "Amount", Data: cbEditActionPrefix + actionAmount}},
		{{Text: "Category", Data: cbEditActionPrefix + actionCategory}, {Text: "Cancel record", Data: cbEditActionPrefix + actionCancel}},
		{{Text: "✅ Finish", Data: cbEditDone}},
	}
}

func backButtons() [][]Button {
	return [][]Button{{{Text: "← Back", Data: cbEditBack}}}
}

func confirmButtons() [][]Button {
	return [][]Button{{{Text: "Yes", Data: cbEditConfirmCancel}, {Text: "No", Data: cbEditBack}}}
}
