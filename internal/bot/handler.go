// Package bot is the transport-independent core of the ledger bot: the
// ingestion decision, the resolver for pending records and the edit wizard.
// Handlers take a normalized Event and return rendering instructions; they
// never touch the chat transport themselves.
package bot

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/ledger"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/pipeline"
	"github.com/dvloznov/ledger-bot/internal/session"
)

// Journal is the ledger repository the core works against. Row identity is
// positional and every call re-reads the store.
type Journal interface {
	Append(ctx context.Context, rec domain.Record) error
	HasMessage(ctx context.Context, messageID string) (bool, error)
	FindLastPending(ctx context.Context, authorID string) (ledger.Entry, bool, error)
	ListRecent(ctx context.Context, authorID string, limit int) ([]ledger.Entry, error)
	Mutable(ctx context.Context, row int) (domain.Record, error)
	Resolve(ctx context.Context, row int, category string) error
	UpdateAmount(ctx context.Context, row int, amount int64) error
	UpdateDate(ctx context.Context, row int, opDate string) error
	UpdateCategory(ctx context.Context, row int, category string) error
	Cancel(ctx context.Context, row int) error
}

// Categories is the read side of the category sheet.
type Categories interface {
	ListActive(ctx context.Context) ([]domain.Category, error)
	ByID(ctx context.Context, id string) (domain.Category, bool, error)
}

// Extractor produces a candidate for a message; it never fails.
type Extractor interface {
	Extract(ctx context.Context, text string, today civil.Date) pipeline.Outcome
}

// Downloader fetches a voice note from the transport.
type Downloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// VoiceArchive keeps a copy of downloaded voice notes.
type VoiceArchive interface {
	StoreVoice(ctx context.Context, v ArchivedVoice) (string, error)
}

// ArchivedVoice is what gets archived for one voice note.
type ArchivedVoice struct {
	AuthorID   string
	MessageID  string
	MIMEType   string
	Data       []byte
	ReceivedAt time.Time
}

// EventSink receives an audit event for every ledger mutation.
type EventSink interface {
	Emit(ctx context.Context, ev domain.LedgerEvent) error
}

// Deps are the collaborators of the handler. Transcriber, Downloader,
// Archive and Sink are optional.
type Deps struct {
	Journal     Journal
	Categories  Categories
	Extractor   Extractor
	Transcriber pipeline.Transcriber
	Downloader  Downloader
	Archive     VoiceArchive
	Sink        EventSink
	Sessions    session.Store
}

// Options tune rendering and bounds.
type Options struct {
	Location        *time.Location
	CurrencySymbol  string
	EditListLimit   int
	FlashDuration   time.Duration
	DownloadTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Handler is the core event handler.
type Handler struct {
	journal     Journal
	categories  Categories
	extractor   Extractor
	transcriber pipeline.Transcriber
	downloader  Downloader
	archive     VoiceArchive
	sink        EventSink
	sessions    session.Store
	opts        Options
}

// NewHandler wires a handler. Zero options get defaults.
func NewHandler(deps Deps, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.EditListLimit <= 0 {
		opts.EditListLimit = 10
	}
	if opts.FlashDuration < 0 {
		opts.FlashDuration = 0
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		journal:     deps.Journal,
		categories:  deps.Categories,
		extractor:   deps.Extractor,
		transcriber: deps.Transcriber,
		downloader:  deps.Downloader,
		archive:     deps.Archive,
		sink:        deps.Sink,
		sessions:    deps.Sessions,
		opts:        opts,
	}
}

// Handle processes one event. Errors never escape: every failure is turned
// into a reply for the user and a log line.
func (h *Handler) Handle(ctx context.Context, ev Event) []Reply {
	log := logger.FromContext(ctx).With().
		Int64("chat_id", ev.ChatID).
		Str("author_id", ev.AuthorID).
		Int("message_id", ev.MessageID).
		Logger()
	ctx = logger.WithContext(ctx, log)

	switch ev.Kind {
	case KindCommand:
		return h.handleCommand(ctx, ev)
	case KindCallback:
		return h.handleCallback(ctx, ev)
	case KindVoice:
		replies := h.abandonSession(ctx, ev)
		return append(replies, h.handleVoice(ctx, ev)...)
	case KindText:
		if sess, ok := h.sessions.Get(ctx, ev.Key()); ok && sess.State.WaitsForText() {
			return h.handleEditInput(ctx, ev, sess)
		}
		replies := h.abandonSession(ctx, ev)
		return append(replies, h.handleText(ctx, ev)...)
	}

	log.Debug().Int("kind", int(ev.Kind)).Msg("ignoring unsupported event")
	return nil
}

func (h *Handler) handleCommand(ctx context.Context, ev Event) []Reply {
	switch strings.ToLower(ev.Command) {
	case "start", "help":
		return []Reply{send(msgHelp, nil)}
	case "edit":
		return h.startEdit(ctx, ev)
	case "cancel":
		return h.cancelEdit(ctx, ev)
	}
	return []Reply{send(msgUnknownCommand, nil)}
}

func (h *Handler) handleCallback(ctx context.Context, ev Event) []Reply {
	data := ev.CallbackData
	switch {
	case strings.HasPrefix(data, cbCategoryPrefix):
		return h.handleResolve(ctx, ev, strings.TrimPrefix(data, cbCategoryPrefix))
	case strings.HasPrefix(data, cbEditCategoryPrefix), strings.HasPrefix(data, "edit:"):
		return h.handleEditCallback(ctx, ev)
	}
	log := logger.FromContext(ctx)
	log.Warn().Str("data", data).Msg("unknown callback payload")
	return []Reply{toast(msgEditStale, false)}
}

// BindSessionMessage records the message a session renders into, once the
// transport has sent it.
func (h *Handler) BindSessionMessage(ctx context.Context, key session.Key, ref session.MessageRef) {
	sess, ok := h.sessions.Get(ctx, key)
	if !ok || !sess.Message.IsZero() {
		return
	}
	sess.Message = ref
	h.sessions.Save(ctx, key, sess)
}

// DropSession clears a session whose rendered message can no longer be
// edited, e.g. because the user deleted it. A session rendering into another
// message is left alone; a zero lost reference matches an unbound session.
func (h *Handler) DropSession(ctx context.Context, key session.Key, lost session.MessageRef) {
	sess, ok := h.sessions.Get(ctx, key)
	if !ok || sess.Message != lost {
		return
	}
	log := logger.FromContext(ctx)
	log.Info().Str("session", key.String()).Msg("session message lost, clearing session")
	h.sessions.Clear(ctx, key)
}

func (h *Handler) now() time.Time {
	return h.opts.Now().In(h.opts.Location)
}

func (h *Handler) today() civil.Date {
	return civil.DateOf(h.now())
}

// emit sends an audit event; failures are logged and otherwise ignored.
func (h *Handler) emit(ctx context.Context, ev domain.LedgerEvent) {
	if h.sink == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = h.now()
	}
	if err := h.sink.Emit(ctx, ev); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("event", string(ev.Type)).Int("row", ev.Row).Msg("audit sink failed")
	}
}

// storeFailure logs a ledger error and renders the generic failure reply.
func storeFailure(ctx context.Context, err error, ev Event, msg string) []Reply {
	log := logger.FromContext(ctx)
	log.Error().Err(err).Msg(msg)
	if ev.Kind == KindCallback {
		return []Reply{toast(msgStoreFailure, true)}
	}
	return []Reply{send(msgStoreFailure, nil)}
}
