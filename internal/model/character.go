// Package model defines the character record and its sheet row layout.
package model

import (
	"strings"
)

// Column positions in a sheet row (A..K).
const (
	ColName = iota
	ColDescription
	ColURL
	ColMainImage
	ColThumbnail
	ColRegistrantID
	ColRegistrantName
	ColEditorID
	ColEditorName
	ColReserved
	ColNumber

	NumColumns
)

// Columns is the A1 column range that covers a full record row.
const Columns = "A:K"

// HeaderRows is the number of leading rows that hold column titles.
const HeaderRows = 1

// NumberFormula is written into column K so the sheet shows a running number.
const NumberFormula = "=ROW()-1"

// Header is the title row written into an empty store.
var Header = []string{
	"名前", "説明", "配布所URL", "メイン画像", "サムネイル画像",
	"登録者ID", "登録者", "編集者ID", "編集者", "", "No.",
}

// Row is one raw sheet row. Trailing empty cells may be missing.
type Row []string

// Cell returns the cell at col, or "" when the row is shorter.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Character is one registered character.
type Character struct {
	Ordinal        int    `json:"ordinal"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	MainImage      string `json:"main_image,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	RegistrantID   string `json:"registrant_id,omitempty"`
	RegistrantName string `json:"registrant_name,omitempty"`
	EditorID       string `json:"editor_id,omitempty"`
	EditorName     string `json:"editor_name,omitempty"`
}

// User identifies the person acting on a record.
type User struct {
	ID          string
	Username    string
	DisplayName string
}

// Label renders the user the way the sheet stores it: "display@username".
func (u User) Label() string {
	display := u.DisplayName
	if display == "" {
		display = u.Username
	}
	return display + "@" + u.Username
}

// FromRow decodes a sheet row found at the given 1-based ordinal.
func FromRow(ordinal int, r Row) Character {
	return Character{
		Ordinal:        ordinal,
		Name:           r.Cell(ColName),
		Description:    r.Cell(ColDescription),
		URL:            r.Cell(ColURL),
		MainImage:      r.Cell(ColMainImage),
		Thumbnail:      r.Cell(ColThumbnail),
		RegistrantID:   r.Cell(ColRegistrantID),
		RegistrantName: r.Cell(ColRegistrantName),
		EditorID:       r.Cell(ColEditorID),
		EditorName:     r.Cell(ColEditorName),
	}
}

// Values encodes the character as a full A..K row.
func (c Character) Values() []string {
	v := make([]string, NumColumns)
	v[ColName] = c.Name
	v[ColDescription] = c.Description
	v[ColURL] = c.URL
	v[ColMainImage] = c.MainImage
	v[ColThumbnail] = c.Thumbnail
	v[ColRegistrantID] = c.RegistrantID
	v[ColRegistrantName] = c.RegistrantName
	v[ColEditorID] = c.EditorID
	v[ColEditorName] = c.EditorName
	v[ColNumber] = NumberFormula
	return v
}

// uriReserved lists the bytes encodeURI leaves untouched besides alphanumerics.
const uriReserved = ";,/?:@&=+$-_.!~*'()#"

// uriDelimiters are the reserved bytes whose escapes survive decoding, so
// an encoded "/" or "&" keeps its meaning.
const uriDelimiters = ";/?:@&=+$,#"

// EncodeReference percent-encodes a link so that an already encoded link
// comes back unchanged and a raw one gets encoded once. Escapes of
// delimiters are kept as they are. A link with a malformed escape is
// treated as raw text.
func EncodeReference(raw string) string {
	if raw == "" {
		return ""
	}
	decode := validEscapes(raw)
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '%' && decode {
			d := unhex(raw[i+1])<<4 | unhex(raw[i+2])
			i += 2
			if strings.IndexByte(uriDelimiters, d) >= 0 {
				writeEscape(&b, d)
				continue
			}
			c = d
		}
		if isUnreservedURIByte(c) {
			b.WriteByte(c)
			continue
		}
		writeEscape(&b, c)
	}
	return b.String()
}

func writeEscape(b *strings.Builder, c byte) {
	b.WriteByte('%')
	b.WriteByte("0123456789ABCDEF"[c>>4])
	b.WriteByte("0123456789ABCDEF"[c&15])
}

// validEscapes reports whether every '%' in s starts a two digit hex escape.
func validEscapes(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

func isUnreservedURIByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(uriReserved, c) >= 0
}
