package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/pipeline"
)

// IngestInput is everything needed to build a ledger record.
type IngestInput struct {
	Text      string
	AuthorID  string
	MessageID string
	Source    domain.Source
	Candidate pipeline.Candidate
	CreatedAt time.Time // already in the ledger timezone
}

// IngestResult reports what ingestion did.
type IngestResult struct {
	Record    domain.Record
	Duplicate bool
}

// BuildRecord applies the decision rule: a candidate that needs review or has
// no category becomes a pending record with an empty category; anything else
// is final.
func BuildRecord(in IngestInput) domain.Record {
	cand := in.Candidate

	opDate := cand.OpDate
	if !opDate.IsValid() {
		opDate = civil.DateOf(in.CreatedAt)
	}
	amount := cand.Amount
	if amount < 0 {
		amount = 0
	}

	rec := domain.Record{
		CreatedAt:  in.CreatedAt.Format(domain.CreatedAtLayout),
		OpDate:     opDate.String(),
		Amount:     amount,
		CommentRaw: in.Text,
		Source:     in.Source,
		AuthorID:   in.AuthorID,
		MessageID:  in.MessageID,
	}
	rec.MonthKey = domain.MonthKey(rec.OpDate)

	category := strings.TrimSpace(cand.Category)
	if cand.NeedsReview || category == "" {
		rec.Status = domain.StatusPending
		rec.Category = ""
		rec.NeedsReview = domain.NeedsReviewTrue
	} else {
		rec.Status = domain.StatusOK
		rec.Category = category
		rec.NeedsReview = domain.NeedsReviewFalse
	}
	return rec
}

// IsDuplicate checks the store for an already ingested message id.
func (h *Handler) IsDuplicate(ctx context.Context, messageID string) (bool, error) {
	dup, err := h.journal.HasMessage(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("IsDuplicate: %w", err)
	}
	return dup, nil
}

// Commit builds the record and appends it: exactly one append on success.
func (h *Handler) Commit(ctx context.Context, in IngestInput) (domain.Record, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = h.now()
	}
	rec := BuildRecord(in)
	if err := h.journal.Append(ctx, rec); err != nil {
		return domain.Record{}, fmt.Errorf("Commit: %w", err)
	}
	return rec, nil
}

// Ingest is the full text path: duplicate check, then commit. The candidate
// comes from an extraction outcome, which always carries a usable value.
func (h *Handler) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	dup, err := h.IsDuplicate(ctx, in.MessageID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("Ingest: %w", err)
	}
	if dup {
		return IngestResult{Duplicate: true}, nil
	}
	rec, err := h.Commit(ctx, in)
	if err != nil {
		return IngestResult{}, fmt.Errorf("Ingest: %w", err)
	}
	return IngestResult{Record: rec}, nil
}

func (h *Handler) handleText(ctx context.Context, ev Event) []Reply {
	log := logger.FromContext(ctx)
	text := strings.TrimSpace(ev.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	messageID := ev.LedgerMessageID()
	dup, err := h.IsDuplicate(ctx, messageID)
	if err != nil {
		return storeFailure(ctx, err, ev, "duplicate check failed")
	}
	if dup {
		log.Info().Msg("duplicate message skipped")
		return []Reply{send(msgDuplicate, nil)}
	}

	outcome := h.extractor.Extract(ctx, text, h.today())
	rec, err := h.Commit(ctx, IngestInput{
		Text:      text,
		AuthorID:  ev.AuthorID,
		MessageID: messageID,
		Source:    domain.SourceText,
		Candidate: outcome.Candidate,
	})
	if err != nil {
		return storeFailure(ctx, err, ev, "append failed")
	}

	log.Info().
		Str("status", string(rec.Status)).
		Str("extractor", outcome.Extractor).
		Int64("amount", rec.Amount).
		Msg("record appended")
	h.emitAppended(ctx, rec, "")

	return h.ingestReplies(ctx, rec, "")
}

func (h *Handler) handleVoice(ctx context.Context, ev Event) []Reply {
	log := logger.FromContext(ctx)
	if ev.Voice == nil {
		return nil
	}

	messageID := ev.LedgerMessageID()
	dup, err := h.IsDuplicate(ctx, messageID)
	if err != nil {
		return storeFailure(ctx, err, ev, "duplicate check failed")
	}
	if dup {
		log.Info().Msg("duplicate voice note skipped")
		return []Reply{send(msgVoiceDuplicate, nil)}
	}

	if h.transcriber == nil || h.downloader == nil {
		return []Reply{send(msgVoiceUnavailable, nil)}
	}

	dlCtx, cancel := context.WithTimeout(ctx, h.opts.DownloadTimeout)
	audio, err := h.downloader.Download(dlCtx, ev.Voice.FileID)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("voice download failed")
		return []Reply{send(msgVoiceDownload, nil)}
	}

	voiceURI := ""
	if h.archive != nil {
		uri, err := h.archive.StoreVoice(ctx, ArchivedVoice{
			AuthorID:   ev.AuthorID,
			MessageID:  messageID,
			MIMEType:   ev.Voice.MIMEType,
			Data:       audio,
			ReceivedAt: h.now(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("voice archive failed")
		} else {
			voiceURI = uri
		}
	}

	transcript, err := h.transcriber.Transcribe(ctx, audio, ev.Voice.MIMEType)
	transcript = strings.TrimSpace(transcript)
	if err != nil || transcript == "" {
		log.Warn().Err(err).Msg("transcription failed")
		return []Reply{send(msgVoiceNotHeard, nil)}
	}

	outcome := h.extractor.Extract(ctx, transcript, h.today())
	if outcome.Candidate.Amount <= 0 {
		log.Info().Str("transcript", logger.Snippet(transcript)).Msg("no amount in voice note")
		return []Reply{send(noAmountText(transcript), nil)}
	}

	rec, err := h.Commit(ctx, IngestInput{
		Text:      transcript,
		AuthorID:  ev.AuthorID,
		MessageID: messageID,
		Source:    domain.SourceVoice,
		Candidate: outcome.Candidate,
	})
	if err != nil {
		return storeFailure(ctx, err, ev, "append failed")
	}

	log.Info().
		Str("status", string(rec.Status)).
		Str("extractor", outcome.Extractor).
		Int64("amount", rec.Amount).
		Msg("voice record appended")
	h.emitAppended(ctx, rec, voiceURI)

	return h.ingestReplies(ctx, rec, transcript)
}

// ingestReplies renders the answer to a committed record. A pending record
// asks for the category; transcript is echoed for voice notes.
func (h *Handler) ingestReplies(ctx context.Context, rec domain.Record, transcript string) []Reply {
	if !rec.IsPending() {
		return []Reply{send(h.savedText(rec.OpDate, rec.Category, rec.Amount), nil)}
	}

	prefix := ""
	if transcript != "" {
		prefix = recognizedText(transcript) + "\n"
	}

	cats, err := h.categories.ListActive(ctx)
	if err != nil || len(cats) == 0 {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("category list unavailable")
		return []Reply{send(prefix+msgNoCategories, nil)}
	}
	return []Reply{send(prefix+msgChooseCategory, categoryButtons(cats, cbCategoryPrefix))}
}

func (h *Handler) emitAppended(ctx context.Context, rec domain.Record, voiceURI string) {
	h.emit(ctx, domain.LedgerEvent{
		Type:      domain.EventAppended,
		AuthorID:  rec.AuthorID,
		MessageID: rec.MessageID,
		OpDate:    rec.OpDate,
		Category:  rec.Category,
		Amount:    rec.Amount,
		Status:    rec.Status,
		VoiceURI:  voiceURI,
	})
}
