// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rcliao/charabot/internal/i18n"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Config holds every setting the process reads from the environment.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	ClientID     string `env:"CLIENT_ID"`
	GuildID      string `env:"GUILD_ID"`

	// GoogleCredentials is the service account key as JSON text.
	GoogleCredentials string `env:"GOOGLE_SHEET_CREDENTIALS"`
	SpreadsheetID     string `env:"SPREADSHEET_ID"`
	SheetName         string `env:"SHEET_NAME" envDefault:"シート1"`
	DriveFolderID     string `env:"DRIVE_FOLDER_ID"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sheets"`
	DBPath       string `env:"CHARABOT_DB"`

	Port      int    `env:"PORT" envDefault:"3000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	PromptTimeout  time.Duration `env:"PROMPT_TIMEOUT" envDefault:"15s"`
	DefaultLocale  string        `env:"DEFAULT_LOCALE" envDefault:"ja"`
	ParentCacheTTL time.Duration `env:"PARENT_CACHE_TTL" envDefault:"10m"`
}

// Load parses and validates the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that do not depend on the command being run.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendSheets, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q (sheets, sqlite)", c.StoreBackend))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q (json, console)", c.LogFormat))
	}
	if c.PromptTimeout <= 0 {
		errs = append(errs, errors.New("PROMPT_TIMEOUT: must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: out of range: %d", c.Port))
	}
	if !slices.Contains(i18n.Locales, c.DefaultLocale) {
		errs = append(errs, fmt.Errorf("DEFAULT_LOCALE: unsupported locale %q", c.DefaultLocale))
	}
	return errors.Join(errs...)
}

// RequireDiscord checks the settings needed to talk to Discord.
func (c *Config) RequireDiscord() error {
	var errs []error
	if c.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("CLIENT_ID is required"))
	}
	return errors.Join(errs...)
}

// RequireGoogle checks the settings needed by the Sheets and Drive clients.
func (c *Config) RequireGoogle() error {
	var errs []error
	if c.GoogleCredentials == "" {
		errs = append(errs, errors.New("GOOGLE_SHEET_CREDENTIALS is required"))
	}
	if c.StoreBackend == BackendSheets && c.SpreadsheetID == "" {
		errs = append(errs, errors.New("SPREADSHEET_ID is required"))
	}
	if c.DriveFolderID == "" {
		errs = append(errs, errors.New("DRIVE_FOLDER_ID is required"))
	}
	return errors.Join(errs...)
}

// GoogleOptions returns client options shared by the Sheets and Drive
// clients.
func (c *Config) GoogleOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithCredentialsJSON([]byte(c.GoogleCredentials)),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveFileScope),
	}
}

// ResolveDBPath returns the SQLite path, defaulting to
// ~/.charabot/records.db.
func (c *Config) ResolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".charabot", "records.db")
}

// NewLogger builds a zap logger at level, as JSON or console output.
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	var zc zap.Config
	if format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
