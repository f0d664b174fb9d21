package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-bot/internal/bot"
	"github.com/dvloznov/ledger-bot/internal/config"
	"github.com/dvloznov/ledger-bot/internal/domain"
	"github.com/dvloznov/ledger-bot/internal/infra/sheets"
	"github.com/dvloznov/ledger-bot/internal/ledger"
	"github.com/dvloznov/ledger-bot/internal/logger"
	"github.com/dvloznov/ledger-bot/internal/pipeline"
)

// Result is printed as JSON after a run.
type Result struct {
	Extractor string        `json:"extractor"`
	Note      string        `json:"note,omitempty"`
	Duplicate bool          `json:"duplicate"`
	Record    domain.Record `json:"record"`
}

func main() {
	log := logger.New()

	text := flag.String("text", "", "Message text to ingest (required)")
	author := flag.String("author", "cli", "Author id written to the record")
	messageID := flag.String("message-id", "", "Message id for deduplication (default: cli-<unix time>)")
	dryRun := flag.Bool("dry-run", false, "Use an in-memory ledger instead of the spreadsheet")
	flag.Parse()

	if strings.TrimSpace(*text) == "" {
		log.Fatal().Msg("Error: --text is required")
	}
	if *messageID == "" {
		*messageID = fmt.Sprintf("cli-%d", time.Now().Unix())
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log = logger.NewWithLevel(cfg.Log.Level, "console")
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var store ledger.Store
	if *dryRun {
		store = ledger.NewMemoryStore()
	} else {
		if err := cfg.ValidateStore(); err != nil {
			log.Fatal().Err(err).Msg("Invalid config")
		}
		store, err = sheets.NewStore(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create sheets store")
		}
	}
	journal := ledger.NewJournal(store, cfg.Sheets.JournalSheet)
	categories := ledger.NewCategories(store, cfg.Sheets.CategorySheet)
	if *dryRun {
		if _, err := journal.EnsureHeader(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to write journal header")
		}
		if _, err := categories.SeedIfEmpty(ctx, domain.DefaultCategories); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed categories")
		}
	}

	var primary pipeline.Extractor
	if cfg.LLM.Enabled {
		client, err := pipeline.NewGeminiClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		primary = pipeline.NewGeminiExtractor(client, cfg.LLM.Model, categories)
	}

	h := bot.NewHandler(bot.Deps{Journal: journal, Categories: categories}, bot.Options{Location: loc})
	res, err := run(ctx, h, pipeline.New(primary, cfg.LLM.Timeout), bot.IngestInput{
		Text:      strings.TrimSpace(*text),
		AuthorID:  *author,
		MessageID: *messageID,
		Source:    domain.SourceText,
	}, civil.DateOf(time.Now().In(loc)))
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	if err := printResult(os.Stdout, res); err != nil {
		log.Fatal().Err(err).Msg("Failed to print result")
	}
}

// run extracts a candidate for in.Text and ingests it.
func run(ctx context.Context, h *bot.Handler, extractor bot.Extractor, in bot.IngestInput, today civil.Date) (Result, error) {
	outcome := extractor.Extract(ctx, in.Text, today)
	in.Candidate = outcome.Candidate

	res := Result{Extractor: outcome.Extractor}
	if outcome.Err != nil {
		res.Note = outcome.Err.Error()
	}

	ingested, err := h.Ingest(ctx, in)
	if err != nil {
		return res, fmt.Errorf("run: %w", err)
	}
	res.Duplicate = ingested.Duplicate
	res.Record = ingested.Record
	return res, nil
}

func printResult(w io.Writer, res Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
