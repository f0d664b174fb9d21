package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/ledger"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/session"
)

// startEdit opens a fresh wizard. A running session is closed first, so
// /edit never layers states.
func (h *Handler) startEdit(ctx context.Context, ev Event) []Reply {
	key := ev.Key()
	replies := h.abandonSession(ctx, ev)

	entries, err := h.journal.ListRecent(ctx, ev.AuthorID, h.opts.EditListLimit)
	if err != nil {
		return append(replies, storeFailure(ctx, err, ev, "listing recent records failed")...)
	}
	if len(entries) == 0 {
		return append(replies, send(msgEditNoRows, nil))
	}

	now := h.now()
	h.sessions.Save(ctx, key, session.Session{
		State:     session.StateSelectingRow,
		StartedAt: now,
		UpdatedAt: now,
	})
	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(entries)).Msg("edit session started")

	menu := send(fmt.Sprintf(msgEditChooseRow, len(entries)), rowButtons(entries))
	menu.BindSession = true
	return append(replies, menu)
}

// cancelEdit handles /cancel.
func (h *Handler) cancelEdit(ctx context.Context, ev Event) []Reply {
	key := ev.Key()
	sess, ok := h.sessions.Get(ctx, key)
	if !ok {
		return []Reply{send(msgEditNoSession, nil)}
	}
	h.sessions.Clear(ctx, key)
	if sess.Message.IsZero() {
		return []Reply{send(msgEditFinished, nil)}
	}
	return []Reply{edit(sess.Message, msgEditFinished, nil)}
}

// abandonSession clears a running session when the user moves on to
// something unrelated and closes its menu.
func (h *Handler) abandonSession(ctx context.Context, ev Event) []Reply {
	key := ev.Key()
	sess, ok := h.sessions.Get(ctx, key)
	if !ok {
		return nil
	}
	h.sessions.Clear(ctx, key)
	log := logger.FromContext(ctx)
	log.Info().Str("state", string(sess.State)).Msg("edit session abandoned")
	if sess.Message.IsZero() {
		return nil
	}
	return []Reply{edit(sess.Message, msgEditClosed, nil)}
}

func (h *Handler) handleEditCallback(ctx context.Context, ev Event) []Reply {
	key := ev.Key()
	data := ev.CallbackData

	sess, ok := h.sessions.Get(ctx, key)
	if !ok || sess.Message.IsZero() || sess.Message != ev.MessageRef() {
		return []Reply{toast(msgEditStale, false)}
	}

	switch {
	case strings.HasPrefix(data, cbEditRowPrefix) && sess.State == session.StateSelectingRow:
		row, err := strconv.Atoi(strings.TrimPrefix(data, cbEditRowPrefix))
		if err != nil || row < 2 {
			return []Reply{toast(msgEditStale, false)}
		}
		sess.Row = row
		return h.renderCard(ctx, ev, sess)

	case strings.HasPrefix(data, cbEditActionPrefix) && sess.State == session.StateChoosingAction:
		return h.chooseAction(ctx, ev, sess, strings.TrimPrefix(data, cbEditActionPrefix))

	case strings.HasPrefix(data, cbEditCategoryPrefix) && sess.State == session.StateChoosingCategory:
		return h.editCategory(ctx, ev, sess, strings.TrimPrefix(data, cbEditCategoryPrefix))

	case data == cbEditConfirmCancel && sess.State == session.StateConfirmingCancel:
		return h.confirmCancel(ctx, ev, sess)

	case data == cbEditBack && sess.Row > 0:
		return h.renderCard(ctx, ev, sess)

	case data == cbEditDone:
		h.sessions.Clear(ctx, key)
		log := logger.FromContext(ctx)
		log.Info().Int("row", sess.Row).Msg("edit session finished")
		return []Reply{toast(msgToastDone, false), edit(sess.Message, msgEditFinished, nil)}
	}

	return []Reply{toast(msgEditStale, false)}
}

func (h *Handler) chooseAction(ctx context.Context, ev Event, sess session.Session, action string) []Reply {
	var (
		next    session.State
		text    string
		buttons [][]Button
	)
	switch action {
	case actionAmount:
		next, text, buttons = session.StateWaitingAmount, msgEditAmount, backButtons()
	case actionDate:
		next, text, buttons = session.StateWaitingDate, msgEditDate, backButtons()
	case actionCancel:
		next, text, buttons = session.StateConfirmingCancel, msgEditConfirm, confirmButtons()
	case actionCategory:
		cats, err := h.categories.ListActive(ctx)
		if err != nil {
			return storeFailure(ctx, err, ev, "category list failed")
		}
		if len(cats) == 0 {
			return []Reply{toast(msgNoCategories, true)}
		}
		next, text = session.StateChoosingCategory, msgEditCategory
		buttons = append(categoryButtons(cats, cbEditCategoryPrefix), backButtons()...)
	default:
		return []Reply{toast(msgEditStale, false)}
	}

	sess.State = next
	h.touch(ctx, ev.Key(), sess)
	return []Reply{toast("", false), edit(sess.Message, text, buttons)}
}

func (h *Handler) editCategory(ctx context.Context, ev Event, sess session.Session, categoryID string) []Reply {
	cat, ok, err := h.categories.ByID(ctx, categoryID)
	if err != nil {
		return storeFailure(ctx, err, ev, "category lookup failed")
	}
	if !ok {
		return []Reply{toast(msgUnknownCat, true)}
	}

	rec, ok, err := h.editableRow(ctx, ev, sess.Row)
	if err != nil {
		return storeFailure(ctx, err, ev, "reading edited row failed")
	}
	if !ok {
		return h.unavailable(ctx, ev, sess)
	}

	// A pending row picked from the edit menu is finalized the same way the
	// resolver does it.
	if rec.IsPending() {
		err = h.journal.Resolve(ctx, sess.Row, cat.Name)
	} else {
		err = h.journal.UpdateCategory(ctx, sess.Row, cat.Name)
	}
	if err != nil {
		return storeFailure(ctx, err, ev, "category update failed")
	}

	rec.Category = cat.Name
	rec.Status = domain.StatusOK
	h.emitEdit(ctx, domain.EventCategoryEdited, sess.Row, rec)

	replies := []Reply{toast("", false), h.flash(sess, flashCategory(cat.Name))}
	return append(replies, h.renderCard(ctx, ev, sess)...)
}

func (h *Handler) confirmCancel(ctx context.Context, ev Event, sess session.Session) []Reply {
	rec, ok, err := h.editableRow(ctx, ev, sess.Row)
	if err != nil {
		return storeFailure(ctx, err, ev, "reading edited row failed")
	}
	if !ok {
		return h.unavailable(ctx, ev, sess)
	}

	if err := h.journal.Cancel(ctx, sess.Row); err != nil {
		return storeFailure(ctx, err, ev, "cancel failed")
	}
	rec.Status = domain.StatusCanceled
	h.emitEdit(ctx, domain.EventRecordCanceled, sess.Row, rec)

	h.sessions.Clear(ctx, ev.Key())
	log := logger.FromContext(ctx)
	log.Info().Int("row", sess.Row).Msg("record canceled")
	return []Reply{toast(msgToastCanceled, false), edit(sess.Message, msgEditCanceled, nil)}
}

// handleEditInput consumes the text a waiting state asked for. Invalid input
// re-prompts and keeps the state.
func (h *Handler) handleEditInput(ctx context.Context, ev Event, sess session.Session) []Reply {
	key := ev.Key()
	if sess.Message.IsZero() {
		h.sessions.Clear(ctx, key)
		return []Reply{send(msgEditExpired, nil)}
	}

	switch sess.State {
	case session.StateWaitingAmount:
		amount, err := ParseAmountInput(ev.Text)
		if err != nil {
			return []Reply{edit(sess.Message, msgBadAmount, backButtons())}
		}
		rec, ok, err := h.editableRow(ctx, ev, sess.Row)
		if err != nil {
			return storeFailure(ctx, err, ev, "reading edited row failed")
		}
		if !ok {
			return h.unavailable(ctx, ev, sess)
		}
		if err := h.journal.UpdateAmount(ctx, sess.Row, amount); err != nil {
			return storeFailure(ctx, err, ev, "amount update failed")
		}
		rec.Amount = amount
		h.emitEdit(ctx, domain.EventAmountEdited, sess.Row, rec)
		return append([]Reply{h.flash(sess, h.flashAmount(amount))}, h.renderCard(ctx, ev, sess)...)

	case session.StateWaitingDate:
		d, err := ParseDateInput(ev.Text, h.today())
		if err != nil {
			return []Reply{edit(sess.Message, dateErrorText(err), backButtons())}
		}
		rec, ok, err := h.editableRow(ctx, ev, sess.Row)
		if err != nil {
			return storeFailure(ctx, err, ev, "reading edited row failed")
		}
		if !ok {
			return h.unavailable(ctx, ev, sess)
		}
		opDate := d.String()
		if err := h.journal.UpdateDate(ctx, sess.Row, opDate); err != nil {
			return storeFailure(ctx, err, ev, "date update failed")
		}
		rec.OpDate = opDate
		h.emitEdit(ctx, domain.EventDateEdited, sess.Row, rec)
		return append([]Reply{h.flash(sess, flashDate(opDate))}, h.renderCard(ctx, ev, sess)...)
	}

	return nil
}

// renderCard re-reads the edited row and shows the action card.
func (h *Handler) renderCard(ctx context.Context, ev Event, sess session.Session) []Reply {
	rec, ok, err := h.editableRow(ctx, ev, sess.Row)
	if err != nil {
		return storeFailure(ctx, err, ev, "reading edited row failed")
	}
	if !ok {
		return h.unavailable(ctx, ev, sess)
	}
	sess.State = session.StateChoosingAction
	h.touch(ctx, ev.Key(), sess)
	return []Reply{edit(sess.Message, h.cardText(rec), actionButtons())}
}

// editableRow re-reads a row and reports whether the author may still edit
// it. Canceled, vanished and foreign rows are not editable.
func (h *Handler) editableRow(ctx context.Context, ev Event, row int) (domain.Record, bool, error) {
	rec, err := h.journal.Mutable(ctx, row)
	switch {
	case errors.Is(err, ledger.ErrCanceled), errors.Is(err, ledger.ErrRowNotFound):
		return domain.Record{}, false, nil
	case err != nil:
		return domain.Record{}, false, err
	}
	if rec.AuthorID != ev.AuthorID {
		log := logger.FromContext(ctx)
		log.Warn().Int("row", row).Msg("row belongs to another author")
		return domain.Record{}, false, nil
	}
	return rec, true, nil
}

func (h *Handler) unavailable(ctx context.Context, ev Event, sess session.Session) []Reply {
	h.sessions.Clear(ctx, ev.Key())
	log := logger.FromContext(ctx)
	log.Info().Int("row", sess.Row).Msg("edited row unavailable, session cleared")
	return []Reply{edit(sess.Message, msgEditUnavailable, nil)}
}

func (h *Handler) flash(sess session.Session, text string) Reply {
	r := edit(sess.Message, text, nil)
	r.Pause = h.opts.FlashDuration
	return r
}

func (h *Handler) touch(ctx context.Context, key session.Key, sess session.Session) {
	sess.UpdatedAt = h.now()
	h.sessions.Save(ctx, key, sess)
}

func (h *Handler) emitEdit(ctx context.Context, typ domain.EventType, row int, rec domain.Record) {
	h.emit(ctx, domain.LedgerEvent{
		Type:      typ,
		Row:       row,
		AuthorID:  rec.AuthorID,
		MessageID: rec.MessageID,
		OpDate:    rec.OpDate,
		Category:  rec.Category,
		Amount:    rec.Amount,
		Status:    rec.Status,
	})
}
