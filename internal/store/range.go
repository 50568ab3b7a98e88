package store

import (
	"fmt"
	"regexp"
	"strings"
)

var columnsRegex = regexp.MustCompile(`^([A-Z]+):([A-Z]+)$`)

// parseColumns parses an A1 column range like "A:K" into 0-based
// inclusive column indexes.
func parseColumns(s string) (first, last int, err error) {
	m := columnsRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: columns %q (use e.g. A:K)", ErrInvalidRange, s)
	}
	first, last = columnIndex(m[1]), columnIndex(m[2])
	if first > last {
		return 0, 0, fmt.Errorf("%w: columns %q are reversed", ErrInvalidRange, s)
	}
	return first, last, nil
}

func columnIndex(letters string) int {
	n := 0
	for _, r := range letters {
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

func columnLetters(idx int) string {
	var b []byte
	for idx++; idx > 0; idx = (idx - 1) / 26 {
		b = append([]byte{byte('A' + (idx-1)%26)}, b...)
	}
	return string(b)
}

// rowRange renders the A1 range for one row, e.g. "Sheet!A5:K5".
func rowRange(sheet string, ordinal, width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), ordinal, columnLetters(width-1), ordinal)
}

func quoteSheet(sheet string) string {
	if strings.ContainsAny(sheet, " '!") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}

// trimRow keeps cells first..last and drops trailing empty cells, the way
// the Sheets values API does.
func trimRow(cells []string, first, last int) []string {
	if first >= len(cells) {
		return []string{}
	}
	end := last + 1
	if end > len(cells) {
		end = len(cells)
	}
	out := append([]string(nil), cells[first:end]...)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
