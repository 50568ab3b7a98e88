package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/charabot/internal/model"
)

// SQLiteStore implements Store on a local SQLite table. Rows keep the
// positional semantics of a sheet: ordinals follow insertion order and
// shift when earlier rows are deleted.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path and
// seeds the header row into an empty table.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		cells      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sheet_rows`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return s.insert(context.Background(), model.Header)
	}
	return nil
}

func (s *SQLiteStore) FetchRows(ctx context.Context, columns string) ([]model.Row, error) {
	first, last, err := parseColumns(columns)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM sheet_rows ORDER BY seq`)
	if err != nil {
		return nil, &RemoteError{Op: "fetch rows", Err: err}
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &RemoteError{Op: "fetch rows", Err: err}
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", len(out)+1, err)
		}
		ordinal := len(out) + 1
		for i, c := range cells {
			cells[i] = evalCell(c, ordinal)
		}
		out = append(out, model.Row(trimRow(cells, first, last)))
	}
	if err := rows.Err(); err != nil {
		return nil, &RemoteError{Op: "fetch rows", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) AppendRow(ctx context.Context, values []string) error {
	if err := s.insert(ctx, values); err != nil {
		return &RemoteError{Op: "append row", Err: err}
	}
	return nil
}

func (s *SQLiteStore) insert(ctx context.Context, values []string) error {
	b, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (cells, updated_at) VALUES (?, ?)`,
		string(b), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) UpdateRow(ctx context.Context, ordinal int, values []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &RemoteError{Op: "update row", Err: err}
	}
	defer tx.Rollback()

	seq, raw, err := rowAt(ctx, tx, ordinal)
	if err != nil {
		return err
	}

	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return fmt.Errorf("decode row %d: %w", ordinal, err)
	}
	for len(cells) < len(values) {
		cells = append(cells, "")
	}
	copy(cells, values)

	b, _ := json.Marshal(cells)
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET cells = ?, updated_at = ? WHERE seq = ?`,
		string(b), time.Now().UTC().Format(time.RFC3339), seq); err != nil {
		return &RemoteError{Op: "update row", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &RemoteError{Op: "update row", Err: err}
	}
	return nil
}

func (s *SQLiteStore) DeleteRow(ctx context.Context, ordinal int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &RemoteError{Op: "delete row", Err: err}
	}
	defer tx.Rollback()

	seq, _, err := rowAt(ctx, tx, ordinal)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE seq = ?`, seq); err != nil {
		return &RemoteError{Op: "delete row", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &RemoteError{Op: "delete row", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func rowAt(ctx context.Context, tx *sql.Tx, ordinal int) (int64, string, error) {
	if ordinal < 1 {
		return 0, "", fmt.Errorf("%w: ordinal %d", ErrInvalidRange, ordinal)
	}
	var seq int64
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT seq, cells FROM sheet_rows ORDER BY seq LIMIT 1 OFFSET ?`, ordinal-1).Scan(&seq, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("%w: ordinal %d", ErrRowNotFound, ordinal)
	}
	if err != nil {
		return 0, "", &RemoteError{Op: "locate row", Err: err}
	}
	return seq, raw, nil
}

// rowFormulaRegex matches the only formula this store evaluates: =ROW()±k.
var rowFormulaRegex = regexp.MustCompile(`^=ROW\(\)\s*(?:([+-])\s*(\d+))?$`)

func evalCell(cell string, ordinal int) string {
	m := rowFormulaRegex.FindStringSubmatch(cell)
	if m == nil {
		return cell
	}
	n := ordinal
	if m[1] != "" {
		k, _ := strconv.Atoi(m[2])
		if m[1] == "-" {
			k = -k
		}
		n += k
	}
	return strconv.Itoa(n)
}
