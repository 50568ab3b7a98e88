// Package cli implements the charabot commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/charabot/internal/blob"
	"github.com/rcliao/charabot/internal/character"
	"github.com/rcliao/charabot/internal/config"
	"github.com/rcliao/charabot/internal/store"
)

var (
	dbPath      string
	backendFlag string
	formatFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "charabot",
	Short: "Discord bot for a shared character registry",
	Long:  "A Discord bot that keeps character records in a Google spreadsheet and their images in Drive, plus admin commands over the same store.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite path for the sqlite backend (default: $CHARABOT_DB or ~/.charabot/records.db)")
	RootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Record store: sheets or sqlite (default: $STORE_BACKEND or sheets)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	if dbPath != "" {
		os.Setenv("CHARABOT_DB", dbPath)
	}
	if backendFlag != "" {
		os.Setenv("STORE_BACKEND", backendFlag)
	}
	return config.Load()
}

// openRecords opens the configured record store.
func openRecords(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.BackendSQLite {
		return store.NewSQLiteStore(cfg.ResolveDBPath())
	}
	if err := cfg.RequireGoogle(); err != nil {
		return nil, err
	}
	return store.NewSheetsStore(ctx, cfg.SpreadsheetID, cfg.SheetName, cfg.GoogleOptions()...)
}

// openImages opens Drive when credentials are configured. It returns a
// nil store otherwise, which read-only commands accept.
func openImages(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.GoogleCredentials == "" || cfg.DriveFolderID == "" {
		return nil, nil
	}
	return blob.NewDrive(ctx, blob.DriveOptions{ParentCacheTTL: cfg.ParentCacheTTL}, cfg.GoogleOptions()...)
}

// openService wires a character service for admin commands. The caller
// closes the returned store.
func openService(cmd *cobra.Command) (*character.Service, store.Store) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, "console")
	if err != nil {
		exitErr("create logger", err)
	}

	records, err := openRecords(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	images, err := openImages(cmd.Context(), cfg)
	if err != nil {
		exitErr("open drive", err)
	}
	svc := character.NewService(records, images, character.Options{
		FolderID: cfg.DriveFolderID,
		Logger:   logger.Named("character"),
	})
	return svc, records
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// logErr is exitErr for long-running commands that already have a logger.
func logErr(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}
