package ui

import (
	"reflect"
	"testing"
)

func TestUpper(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Pikachu", "PIKACHU"},
		{"Mr. Mime", "MR. MIME"},
		{"Flabébé", "FLABÉBÉ"},
	}
	for _, tt := range tests {
		if got := Upper(tt.in); got != tt.want {
			t.Errorf("Upper(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Charmander", 20, "Charmander"},
		{"Charmander", 4, "Char"},
		{"Charmander", 0, ""},
		{"ポケモン", 5, "ポケ"}, // wide runes take two cells
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  []string
	}{
		{
			"It stores electricity in its cheeks.",
			12,
			[]string{"It stores", "electricity", "in its", "cheeks."},
		},
		{"short", 20, []string{"short"}},
		{"   ", 10, nil},
		{"Supercalifragilistic word", 8, []string{"Supercal", "word"}},
	}
	for _, tt := range tests {
		if got := Wrap(tt.in, tt.width); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWidth(t *testing.T) {
	if got := Width("ポケモン"); got != 8 {
		t.Errorf("Width() = %d, want 8", got)
	}
	if got := Width("Mew"); got != 3 {
		t.Errorf("Width() = %d, want 3", got)
	}
}
