package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/ledger-bot/internal/config"
	"github.com/dvloznov/ledger-bot/internal/domain"
	infraBQ "github.com/dvloznov/ledger-bot/internal/infra/bigquery"
	"github.com/dvloznov/ledger-bot/internal/infra/sheets"
	"github.com/dvloznov/ledger-bot/internal/ledger"
	"github.com/dvloznov/ledger-bot/internal/logger"
)

// tableEnsurer creates the audit table when missing.
type tableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// Report is what a seed run changed.
type Report struct {
	HeaderWritten bool
	Categories    int
	AuditTable    bool
}

func main() {
	audit := flag.Bool("audit", false, "Also create the BigQuery audit table (needs AUDIT_BIGQUERY_PROJECT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.NewWithLevel(cfg.Log.Level, "console")
	if err := cfg.ValidateStore(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := sheets.NewStore(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets store")
	}

	var table tableEnsurer
	if *audit {
		if cfg.Audit.ProjectID == "" {
			log.Fatal().Msg("-audit needs AUDIT_BIGQUERY_PROJECT")
		}
		sink, err := infraBQ.NewEventSink(ctx, cfg.Audit.ProjectID, cfg.Audit.Dataset, cfg.Audit.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer sink.Close()
		table = sink
	}

	report, err := seed(ctx,
		ledger.NewJournal(store, cfg.Sheets.JournalSheet),
		ledger.NewCategories(store, cfg.Sheets.CategorySheet),
		table,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}

	log.Info().
		Bool("header_written", report.HeaderWritten).
		Int("categories", report.Categories).
		Bool("audit_table", report.AuditTable).
		Msg("Seed completed")
}

// seed prepares an empty spreadsheet: the journal header and the category
// template. Existing data is never touched, so running it twice is safe.
func seed(ctx context.Context, journal *ledger.Journal, categories *ledger.Categories, table tableEnsurer) (Report, error) {
	var r Report

	wrote, err := journal.EnsureHeader(ctx)
	if err != nil {
		return r, fmt.Errorf("seed: %w", err)
	}
	r.HeaderWritten = wrote

	n, err := categories.SeedIfEmpty(ctx, domain.DefaultCategories)
	if err != nil {
		return r, fmt.Errorf("seed: %w", err)
	}
	r.Categories = n

	if table != nil {
		if err := table.EnsureTable(ctx); err != nil {
			return r, fmt.Errorf("seed: %w", err)
		}
		r.AuditTable = true
	}
	return r, nil
}
