package bot

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/logger"
)

// ResolveSummary describes the row a resolve finalized.
type ResolveSummary struct {
	Row        int
	OpDate     string
	Amount     int64
	CommentRaw string
	Category   string
}

// ResolvePending finalizes the author's newest pending row with the chosen
// category. found is false when no pending row exists; nothing is written then.
func (h *Handler) ResolvePending(ctx context.Context, authorID, category string) (ResolveSummary, bool, error) {
	entry, found, err := h.journal.FindLastPending(ctx, authorID)
	if err != nil {
		return ResolveSummary{}, false, fmt.Errorf("ResolvePending: %w", err)
	}
	if !found {
		return ResolveSummary{}, false, nil
	}

	if err := h.journal.Resolve(ctx, entry.Row, category); err != nil {
		return ResolveSummary{}, false, fmt.Errorf("ResolvePending: %w", err)
	}

	rec := entry.Record
	h.emit(ctx, domain.LedgerEvent{
		Type:      domain.EventResolved,
		Row:       entry.Row,
		AuthorID:  rec.AuthorID,
		MessageID: rec.MessageID,
		OpDate:    rec.OpDate,
		Category:  category,
		Amount:    rec.Amount,
		Status:    domain.StatusOK,
	})

	return ResolveSummary{
		Row:        entry.Row,
		OpDate:     rec.OpDate,
		Amount:     rec.Amount,
		CommentRaw: rec.CommentRaw,
		Category:   category,
	}, true, nil
}

func (h *Handler) handleResolve(ctx context.Context, ev Event, categoryID string) []Reply {
	log := logger.FromContext(ctx)

	cat, ok, err := h.categories.ByID(ctx, categoryID)
	if err != nil {
		return storeFailure(ctx, err, ev, "category lookup failed")
	}
	if !ok {
		log.Warn().Str("category_id", categoryID).Msg("unknown category pressed")
		return []Reply{toast(msgUnknownCat, true)}
	}

	summary, found, err := h.ResolvePending(ctx, ev.AuthorID, cat.Name)
	if err != nil {
		return storeFailure(ctx, err, ev, "resolve failed")
	}
	if !found {
		log.Info().Str("category_id", categoryID).Msg("no pending record to resolve")
		return []Reply{toast("", false), send(msgPendingMissing, nil)}
	}

	log.Info().Int("row", summary.Row).Str("category", summary.Category).Msg("pending record resolved")
	return []Reply{
		toast("", false),
		{Action: ActionDelete, Target: ev.MessageRef()},
		send(h.savedText(summary.OpDate, summary.Category, summary.Amount), nil),
	}
}
