package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rcliao/charabot/internal/config"
	"github.com/rcliao/charabot/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local SQLite store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if cfg.StoreBackend != config.BackendSQLite {
		exitErr("stats", errors.New("only available with --backend sqlite"))
	}

	path := cfg.ResolveDBPath()
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	st, err := s.Stats(cmd.Context(), path)
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(st)
}
