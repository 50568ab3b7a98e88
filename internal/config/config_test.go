package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_BACKEND", "SHEET_NAME", "PORT", "LOG_LEVEL", "LOG_FORMAT", "PROMPT_TIMEOUT", "DEFAULT_LOCALE", "PARENT_CACHE_TTL", "CHARABOT_DB"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSheets, cfg.StoreBackend)
	assert.Equal(t, "シート1", cfg.SheetName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.PromptTimeout)
	assert.Equal(t, 10*time.Minute, cfg.ParentCacheTTL)
	assert.Equal(t, "ja", cfg.DefaultLocale)
	assert.True(t, strings.HasSuffix(cfg.ResolveDBPath(), filepath.Join(".charabot", "records.db")))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("CHARABOT_DB", "/tmp/x.db")
	t.Setenv("PROMPT_TIMEOUT", "30s")
	t.Setenv("DEFAULT_LOCALE", "en-US")
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/x.db", cfg.ResolveDBPath())
	assert.Equal(t, 30*time.Second, cfg.PromptTimeout)
	assert.Equal(t, "en-US", cfg.DefaultLocale)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORE_BACKEND", "excel")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("DEFAULT_LOCALE", "fr")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "DEFAULT_LOCALE")
}

func TestLoadRejectsUnparsableDuration(t *testing.T) {
	t.Setenv("PROMPT_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	cfg := &Config{StoreBackend: BackendSheets}
	err := cfg.RequireDiscord()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
	assert.Contains(t, err.Error(), "CLIENT_ID")

	err = cfg.RequireGoogle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPREADSHEET_ID")

	cfg = &Config{StoreBackend: BackendSQLite, GoogleCredentials: "{}", DriveFolderID: "f"}
	assert.NoError(t, cfg.RequireGoogle())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}
