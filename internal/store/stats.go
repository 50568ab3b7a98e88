package store

import (
	"context"
	"fmt"
	"os"

	"github.com/rcliao/charabot/internal/model"
)

// Stats holds SQLite backend statistics.
type Stats struct {
	DBPath      string `json:"db_path"`
	DBSizeBytes int64  `json:"db_size_bytes"`
	// Rows counts data rows; the header row is excluded.
	Rows        int    `json:"rows"`
	Unnamed     int    `json:"unnamed"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	rows, err := s.FetchRows(ctx, "A:A")
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	for _, r := range rows[min(len(rows), model.HeaderRows):] {
		st.Rows++
		if r.Cell(0) == "" {
			st.Unnamed++
		}
	}

	var last *string
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM sheet_rows`).Scan(&last); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if last != nil {
		st.LastUpdated = *last
	}
	return st, nil
}
