package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rcliao/charabot/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func names(t *testing.T, s Store) []string {
	t.Helper()
	rows, err := s.FetchRows(context.Background(), "A:A")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var out []string
	for _, r := range rows[model.HeaderRows:] {
		out = append(out, r.Cell(0))
	}
	return out
}

func TestNewStoreSeedsHeader(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.FetchRows(context.Background(), model.Columns)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
	if rows[0].Cell(model.ColName) != model.Header[model.ColName] {
		t.Errorf("expected header row, got %v", rows[0])
	}
}

func TestReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s.AppendRow(ctx, []string{"Alpha"})
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got := names(t, s); !reflect.DeepEqual(got, []string{"Alpha"}) {
		t.Errorf("expected [Alpha] after reopen, got %v", got)
	}
}

func TestAppendAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AppendRow(ctx, []string{"Alpha", "desc", "http://x", "", "", "", "", "", "", "", model.NumberFormula}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendRow(ctx, []string{"Beta", "", "", "", "", "", "", "", "", "", model.NumberFormula}); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, err := s.FetchRows(ctx, model.Columns)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if got := rows[1].Cell(model.ColNumber); got != "1" {
		t.Errorf("expected row number 1, got %q", got)
	}
	if got := rows[2].Cell(model.ColNumber); got != "2" {
		t.Errorf("expected row number 2, got %q", got)
	}
	if got := rows[1].Cell(model.ColURL); got != "http://x" {
		t.Errorf("expected url, got %q", got)
	}
}

func TestFetchTrimsColumns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.AppendRow(ctx, []string{"Alpha", "desc", "http://x"})

	rows, err := s.FetchRows(ctx, "A:A")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual([]string(rows[1]), []string{"Alpha"}) {
		t.Errorf("expected only column A, got %v", rows[1])
	}

	rows, _ = s.FetchRows(ctx, "B:C")
	if !reflect.DeepEqual([]string(rows[1]), []string{"desc", "http://x"}) {
		t.Errorf("expected columns B:C, got %v", rows[1])
	}
}

func TestUpdateRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.AppendRow(ctx, []string{"Alpha", "old", "http://x"})

	if err := s.UpdateRow(ctx, 2, []string{"Alpha", "new"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rows, _ := s.FetchRows(ctx, model.Columns)
	if got := rows[1].Cell(model.ColDescription); got != "new" {
		t.Errorf("expected 'new', got %q", got)
	}
	// cells past the written values are kept
	if got := rows[1].Cell(model.ColURL); got != "http://x" {
		t.Errorf("expected url kept, got %q", got)
	}
}

func TestDeleteRowShiftsOrdinals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, n := range []string{"A", "B", "C"} {
		s.AppendRow(ctx, []string{n, "", "", "", "", "", "", "", "", "", model.NumberFormula})
	}

	if err := s.DeleteRow(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := names(t, s); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Fatalf("expected [A C], got %v", got)
	}

	rows, _ := s.FetchRows(ctx, model.Columns)
	if got := rows[2].Cell(model.ColNumber); got != "2" {
		t.Errorf("expected C renumbered to 2, got %q", got)
	}
}

func TestOrdinalErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.DeleteRow(ctx, 5); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
	if err := s.UpdateRow(ctx, 0, []string{"x"}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := s.FetchRows(ctx, "K:A"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for reversed range, got %v", err)
	}
}

func TestEvalCell(t *testing.T) {
	tests := []struct {
		cell    string
		ordinal int
		want    string
	}{
		{"=ROW()-1", 5, "4"},
		{"=ROW()", 5, "5"},
		{"=ROW() + 2", 5, "7"},
		{"=SUM(A1)", 5, "=SUM(A1)"},
		{"plain", 5, "plain"},
	}
	for _, tt := range tests {
		if got := evalCell(tt.cell, tt.ordinal); got != tt.want {
			t.Errorf("evalCell(%q, %d) = %q, want %q", tt.cell, tt.ordinal, got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	st, err := s.Stats(ctx, path)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Rows != 0 || st.LastUpdated == "" {
		t.Errorf("empty store stats = %+v", st)
	}

	for _, name := range []string{"Alpha", "", "Beta"} {
		if err := s.AppendRow(ctx, []string{name, "d"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	st, err = s.Stats(ctx, path)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Rows != 3 || st.Unnamed != 1 {
		t.Errorf("Rows=%d Unnamed=%d, want 3 and 1", st.Rows, st.Unnamed)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected a non-zero file size")
	}
	if st.DBPath != path {
		t.Errorf("DBPath = %q", st.DBPath)
	}
}
