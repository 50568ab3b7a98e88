package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rcliao/charabot/internal/model"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertRows            = "INSERT_ROWS"
)

// SheetsStore implements Store on one sheet of a Google spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string

	mu      sync.Mutex
	sheetID *int64
}

// NewSheetsStore creates a store for the named sheet. The client options
// carry credentials and are shared with the Drive client.
func NewSheetsStore(ctx context.Context, spreadsheetID, sheet string, opts ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func (s *SheetsStore) FetchRows(ctx context.Context, columns string) ([]model.Row, error) {
	if _, _, err := parseColumns(columns); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, quoteSheet(s.sheet)+"!"+columns).
		Context(ctx).Do()
	if err != nil {
		return nil, remoteErr("fetch rows", err)
	}

	rows := make([]model.Row, 0, len(resp.Values))
	for _, vals := range resp.Values {
		row := make(model.Row, len(vals))
		for i, v := range vals {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetsStore) AppendRow(ctx context.Context, values []string) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, quoteSheet(s.sheet)+"!"+model.Columns, valueRange(values)).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertRows).
		Context(ctx).Do()
	if err != nil {
		return remoteErr("append row", err)
	}
	return nil
}

func (s *SheetsStore) UpdateRow(ctx context.Context, ordinal int, values []string) error {
	if ordinal < 1 {
		return fmt.Errorf("%w: ordinal %d", ErrInvalidRange, ordinal)
	}
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rowRange(s.sheet, ordinal, len(values)), valueRange(values)).
		ValueInputOption(valueInputUserEntered).
		Context(ctx).Do()
	if err != nil {
		return remoteErr("update row", err)
	}
	return nil
}

func (s *SheetsStore) DeleteRow(ctx context.Context, ordinal int) error {
	if ordinal < 1 {
		return fmt.Errorf("%w: ordinal %d", ErrInvalidRange, ordinal)
	}
	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(ordinal - 1),
					EndIndex:        int64(ordinal),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return remoteErr("delete row", err)
	}
	return nil
}

func (s *SheetsStore) Close() error {
	return nil
}

// resolveSheetID looks up the numeric id of the sheet once per process.
// It falls back to the first sheet when no title matches.
func (s *SheetsStore) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return 0, remoteErr("get spreadsheet", err)
	}
	if len(meta.Sheets) == 0 {
		return 0, fmt.Errorf("%w: spreadsheet %s has no sheets", ErrInvalidRange, s.spreadsheetID)
	}

	id := meta.Sheets[0].Properties.SheetId
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheet {
			id = sh.Properties.SheetId
			break
		}
	}
	s.sheetID = &id
	return id, nil
}

func valueRange(values []string) *sheets.ValueRange {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &sheets.ValueRange{Values: [][]interface{}{row}}
}

func remoteErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %s", op, ErrRowNotFound, gerr.Message)
		case http.StatusBadRequest:
			return fmt.Errorf("%s: %w: %s", op, ErrInvalidRange, gerr.Message)
		}
	}
	return &RemoteError{Op: op, Err: err}
}
