package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-bot/internal/api/handlers"
	"github.com/dvloznov/ledger-bot/internal/api/middleware"
	"github.com/dvloznov/ledger-bot/internal/archive"
	"github.com/dvloznov/ledger-bot/internal/bot"
	"github.com/dvloznov/ledger-bot/internal/config"
	"github.com/dvloznov/ledger-bot/internal/domain"
	infraBQ "github.com/dvloznov/ledger-bot/internal/infra/bigquery"
	"github.com/dvloznov/ledger-bot/internal/infra/sheets"
	"github.com/dvloznov/ledger-bot/internal/jobs/inmemory"
	"github.com/dvloznov/ledger-bot/internal/ledger"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/pipeline"
	"github.com/dvloznov/ledger-bot/internal/session"
	"github.com/dvloznov/ledger-bot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	// Ledger
	store, err := sheets.NewStore(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets store")
	}
	journal := ledger.NewJournal(store, cfg.Sheets.JournalSheet)
	categories := ledger.NewCategories(store, cfg.Sheets.CategorySheet)
	wrote, seeded, err := prepareLedger(ctx, journal, categories)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare ledger")
	}
	if wrote {
		log.Info().Str("sheet", cfg.Sheets.JournalSheet).Msg("Wrote journal header")
	}
	if seeded > 0 {
		log.Info().Str("sheet", cfg.Sheets.CategorySheet).Int("categories", seeded).Msg("Seeded category sheet")
	}

	deps := bot.Deps{
		Journal:    journal,
		Categories: categories,
		Sessions:   session.NewMemoryStore(cfg.App.SessionTTL),
	}

	// Extraction and transcription
	var primary pipeline.Extractor
	if cfg.LLM.Enabled || cfg.Transcribe.Enabled {
		client, err := pipeline.NewGeminiClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		if cfg.LLM.Enabled {
			primary = pipeline.NewGeminiExtractor(client, cfg.LLM.Model, categories)
		}
		if cfg.Transcribe.Enabled {
			deps.Transcriber = pipeline.NewGeminiTranscriber(client, cfg.Transcribe.Model, cfg.Transcribe.Timeout)
		}
		log.Info().
			Bool("llm", cfg.LLM.Enabled).
			Str("llm_model", cfg.LLM.Model).
			Bool("transcribe", cfg.Transcribe.Enabled).
			Str("transcribe_model", cfg.Transcribe.Model).
			Msg("Gemini configured")
	}
	deps.Extractor = pipeline.New(primary, cfg.LLM.Timeout)

	// Optional audit sink and voice archive
	if cfg.Audit.ProjectID != "" {
		sink, err := infraBQ.NewEventSink(ctx, cfg.Audit.ProjectID, cfg.Audit.Dataset, cfg.Audit.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create audit sink")
		}
		defer sink.Close()
		deps.Sink = sink
		log.Info().Str("dataset", cfg.Audit.Dataset).Str("table", cfg.Audit.Table).Msg("Audit sink enabled")
	}
	if cfg.Archive.Bucket != "" {
		arch, err := archive.NewGCSArchive(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create voice archive")
		}
		defer arch.Close()
		deps.Archive = arch
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("Voice archive enabled")
	}

	// Transport
	if err := tgbotapi.SetLogger(botLogger{log: log.With().Str("component", "tgbotapi").Logger()}); err != nil {
		log.Warn().Err(err).Msg("Failed to set Bot API logger")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("bot", api.Self.UserName).Str("mode", cfg.Telegram.Mode).Msg("Connected to Telegram")

	deps.Downloader = telegram.NewDownloader(api, &http.Client{Timeout: cfg.Telegram.DownloadTimeout})

	core := bot.NewHandler(deps, bot.Options{
		Location:        loc,
		CurrencySymbol:  cfg.App.CurrencySymbol,
		EditListLimit:   cfg.App.EditListLimit,
		FlashDuration:   cfg.App.FlashDuration,
		DownloadTimeout: cfg.Telegram.DownloadTimeout,
	})
	adapter := telegram.NewAdapter(api, core)

	// Dispatcher. Workers outlive the signal so in-flight updates finish.
	queue := inmemory.NewQueue(cfg.Workers.Count, cfg.Workers.Buffer, log)
	workerCtx, cancelWorkers := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancelWorkers()
	if err := queue.Start(workerCtx, adapter.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start update workers")
	}
	log.Info().Int("workers", cfg.Workers.Count).Msg("Started update workers")

	var server *http.Server
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := telegram.SetWebhook(api, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			log.Fatal().Err(err).Msg("Failed to register webhook")
		}
		server = newServer(cfg, queue, log)
		go func() {
			log.Info().Str("addr", cfg.Telegram.ListenAddr).Msg("Starting webhook server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}()
		<-ctx.Done()
	default:
		if err := telegram.DeleteWebhook(api); err != nil {
			log.Warn().Err(err).Msg("Failed to delete webhook")
		}
		if err := telegram.Poll(ctx, api, queue, cfg.Telegram.PollTimeout); err != nil {
			log.Error().Err(err).Msg("Polling stopped with error")
		}
	}

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}

	// Stop accepting updates and wait for in-flight ones
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping update workers")
	}

	log.Info().Msg("Bot exited")
}

// prepareLedger writes the journal header and seeds the category sheet from
// the default template when either is missing.
func prepareLedger(ctx context.Context, journal *ledger.Journal, categories *ledger.Categories) (bool, int, error) {
	wrote, err := journal.EnsureHeader(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("prepareLedger: %w", err)
	}
	seeded, err := categories.SeedIfEmpty(ctx, domain.DefaultCategories)
	if err != nil {
		return wrote, 0, fmt.Errorf("prepareLedger: %w", err)
	}
	return wrote, seeded, nil
}

// newServer builds the webhook server: the update endpoint behind the secret
// check plus a health endpoint.
func newServer(cfg config.Config, queue *inmemory.Queue, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/telegram/webhook", middleware.SecretToken(cfg.Telegram.WebhookSecret)(handlers.NewWebhookHandler(queue, log)))
	mux.Handle("/health", handlers.NewHealthHandler(queue))

	handler := middleware.RequestID(
		middleware.Logger(log)(
			middleware.Recovery(log)(mux),
		),
	)

	return &http.Server{
		Addr:         cfg.Telegram.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// botLogger routes the Bot API library's own messages into zerolog.
type botLogger struct {
	log zerolog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Warn().Msgf(format, v...)
}
