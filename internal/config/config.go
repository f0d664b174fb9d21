// Package config loads the bot configuration from defaults, an optional TOML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// ConfigPathEnv names the variable holding an optional TOML config file.
const ConfigPathEnv = "LEDGERBOT_CONFIG"

// Transport modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds application configuration.
type Config struct {
	App        AppConfig
	Telegram   TelegramConfig
	Sheets     SheetsConfig
	LLM        LLMConfig
	Transcribe TranscribeConfig
	Workers    WorkersConfig
	Audit      AuditConfig
	Archive    ArchiveConfig
	Log        LogConfig
}

// AppConfig holds presentation and wizard settings.
type AppConfig struct {
	Timezone       string
	CurrencySymbol string        `mapstructure:"currency_symbol"`
	EditListLimit  int           `mapstructure:"edit_list_limit"`
	FlashDuration  time.Duration `mapstructure:"flash_duration"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
}

// TelegramConfig holds transport settings.
type TelegramConfig struct {
	Token           string
	Mode            string
	WebhookURL      string        `mapstructure:"webhook_url"`
	WebhookSecret   string        `mapstructure:"webhook_secret"`
	ListenAddr      string        `mapstructure:"listen_addr"`
	PollTimeout     int           `mapstructure:"poll_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
}

// SheetsConfig holds the ledger store settings.
type SheetsConfig struct {
	CredentialsPath string        `mapstructure:"credentials_path"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	JournalSheet    string        `mapstructure:"journal_sheet"`
	CategorySheet   string        `mapstructure:"category_sheet"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// LLMConfig holds extraction model settings.
type LLMConfig struct {
	Enabled bool
	APIKey  string `mapstructure:"api_key"`
	Model   string
	Timeout time.Duration
}

// TranscribeConfig holds speech-to-text settings. The API key is shared with LLM.
type TranscribeConfig struct {
	Enabled bool
	Model   string
	Timeout time.Duration
}

// WorkersConfig sizes the update dispatcher.
type WorkersConfig struct {
	Count  int
	Buffer int
}

// AuditConfig enables the BigQuery audit sink when ProjectID is set.
type AuditConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Dataset   string
	Table     string
}

// ArchiveConfig enables the voice archive when Bucket is set.
type ArchiveConfig struct {
	Bucket string
	Prefix string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// envNames maps config keys onto the deployment's environment variables.
var envNames = map[string]string{
	"app.timezone":              "APP_TIMEZONE",
	"app.currency_symbol":       "APP_CURRENCY_SYMBOL",
	"app.edit_list_limit":       "EDIT_LIST_LIMIT",
	"app.flash_duration":        "EDIT_FLASH_DURATION",
	"app.session_ttl":           "EDIT_SESSION_TTL",
	"telegram.token":            "TELEGRAM_BOT_TOKEN",
	"telegram.mode":             "TELEGRAM_MODE",
	"telegram.webhook_url":      "TELEGRAM_WEBHOOK_URL",
	"telegram.webhook_secret":   "TELEGRAM_WEBHOOK_SECRET",
	"telegram.listen_addr":      "HTTP_LISTEN_ADDR",
	"telegram.poll_timeout":     "TELEGRAM_POLL_TIMEOUT",
	"telegram.download_timeout": "TELEGRAM_DOWNLOAD_TIMEOUT",
	"sheets.credentials_path":   "GOOGLE_CREDENTIALS_PATH",
	"sheets.spreadsheet_id":     "GOOGLE_SHEETS_SPREADSHEET_ID",
	"sheets.journal_sheet":      "GOOGLE_SHEETS_JOURNAL_SHEET_NAME",
	"sheets.category_sheet":     "GOOGLE_SHEETS_CATEGORY_SHEET_NAME",
	"sheets.timeout":            "GOOGLE_SHEETS_TIMEOUT",
	"llm.enabled":               "LLM_ENABLED",
	"llm.api_key":               "LLM_API_KEY",
	"llm.model":                 "LLM_MODEL",
	"llm.timeout":               "LLM_TIMEOUT",
	"transcribe.enabled":        "TRANSCRIBE_ENABLED",
	"transcribe.model":          "TRANSCRIBE_MODEL",
	"transcribe.timeout":        "TRANSCRIBE_TIMEOUT",
	"workers.count":             "WORKER_COUNT",
	"workers.buffer":            "WORKER_BUFFER",
	"audit.project_id":          "AUDIT_BIGQUERY_PROJECT",
	"audit.dataset":             "AUDIT_BIGQUERY_DATASET",
	"audit.table":               "AUDIT_BIGQUERY_TABLE",
	"archive.bucket":            "VOICE_ARCHIVE_BUCKET",
	"archive.prefix":            "VOICE_ARCHIVE_PREFIX",
	"log.level":                 "LOG_LEVEL",
	"log.format":                "LOG_FORMAT",
}

// Load reads configuration: defaults, then the TOML file named by
// LEDGERBOT_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("app.timezone", "Etc/GMT-5")
	v.SetDefault("app.currency_symbol", " ₽")
	v.SetDefault("app.edit_list_limit", 10)
	v.SetDefault("app.flash_duration", 800*time.Millisecond)
	v.SetDefault("app.session_ttl", time.Hour)
	v.SetDefault("telegram.mode", ModePolling)
	v.SetDefault("telegram.listen_addr", ":8080")
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.download_timeout", 30*time.Second)
	v.SetDefault("sheets.journal_sheet", "Journal")
	v.SetDefault("sheets.category_sheet", "Categories")
	v.SetDefault("sheets.timeout", 15*time.Second)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 20*time.Second)
	v.SetDefault("transcribe.enabled", false)
	v.SetDefault("transcribe.model", "gemini-2.5-flash")
	v.SetDefault("transcribe.timeout", 60*time.Second)
	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.buffer", 64)
	v.SetDefault("audit.dataset", "ledger_bot")
	v.SetDefault("audit.table", "ledger_events")
	v.SetDefault("archive.prefix", "voice")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigType("toml")
	if path := os.Getenv(ConfigPathEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Telegram.Mode = strings.ToLower(strings.TrimSpace(c.Telegram.Mode))
	return c, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// ValidateStore checks the settings every binary touching the ledger needs.
func (c Config) ValidateStore() error {
	var errs []error
	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("GOOGLE_SHEETS_SPREADSHEET_ID is required"))
	}
	if c.Sheets.JournalSheet == "" {
		errs = append(errs, errors.New("GOOGLE_SHEETS_JOURNAL_SHEET_NAME must not be empty"))
	}
	if c.Sheets.CategorySheet == "" {
		errs = append(errs, errors.New("GOOGLE_SHEETS_CATEGORY_SHEET_NAME must not be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks everything the bot service needs.
func (c Config) Validate() error {
	errs := []error{c.ValidateStore()}
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			errs = append(errs, errors.New("TELEGRAM_WEBHOOK_URL is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("TELEGRAM_MODE %q: want %s or %s", c.Telegram.Mode, ModePolling, ModeWebhook))
	}
	if (c.LLM.Enabled || c.Transcribe.Enabled) && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required when LLM or transcription is enabled"))
	}
	if c.Workers.Count <= 0 {
		errs = append(errs, errors.New("WORKER_COUNT must be positive"))
	}
	return errors.Join(errs...)
}
