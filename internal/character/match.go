package character

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/rcliao/charabot/internal/model"
)

// MaxChoices is the most options a selection menu can show.
const MaxChoices = 25

// Normalize folds a name for exact matching: NFKC (so full-width and
// half-width forms agree), case folding, and whitespace removal.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// findNormalized returns the first record whose normalized name equals the
// normalized query.
func findNormalized(records []model.Character, query string) (model.Character, bool) {
	q := Normalize(query)
	for _, c := range records {
		if Normalize(c.Name) == q {
			return c, true
		}
	}
	return model.Character{}, false
}

// findExact returns the first record whose name equals name byte for byte.
func findExact(records []model.Character, name string) (model.Character, bool) {
	for _, c := range records {
		if c.Name == name {
			return c, true
		}
	}
	return model.Character{}, false
}

// findContaining returns records whose name contains query, ignoring case.
func findContaining(records []model.Character, query string) []model.Character {
	q := strings.ToLower(query)
	var out []model.Character
	for _, c := range records {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}
