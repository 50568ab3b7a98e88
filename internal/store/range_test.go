package store

import (
	"reflect"
	"testing"
)

func TestParseColumns(t *testing.T) {
	first, last, err := parseColumns("A:K")
	if err != nil || first != 0 || last != 10 {
		t.Errorf("A:K = %d,%d,%v", first, last, err)
	}
	first, last, err = parseColumns("b:aa")
	if err != nil || first != 1 || last != 26 {
		t.Errorf("b:aa = %d,%d,%v", first, last, err)
	}
	if _, _, err := parseColumns("A1:K"); err == nil {
		t.Error("expected error for cell reference")
	}
}

func TestColumnLetters(t *testing.T) {
	for idx, want := range map[int]string{0: "A", 10: "K", 25: "Z", 26: "AA", 27: "AB"} {
		if got := columnLetters(idx); got != want {
			t.Errorf("columnLetters(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("シート1", 5, 11); got != "シート1!A5:K5" {
		t.Errorf("got %q", got)
	}
	if got := rowRange("My Sheet", 2, 3); got != "'My Sheet'!A2:C2" {
		t.Errorf("got %q", got)
	}
}

func TestTrimRow(t *testing.T) {
	got := trimRow([]string{"a", "b", "", ""}, 0, 10)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if got := trimRow([]string{"a"}, 3, 5); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}
