package ui

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.English)

// Upper returns s in upper case.
func Upper(s string) string {
	return upper.String(s)
}

// Width returns the number of terminal cells s occupies.
func Width(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate shortens s to at most width cells without splitting a grapheme.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	var b strings.Builder
	used := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		var w int
		cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if used+w > width {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	return b.String()
}

// Wrap breaks s into lines of at most width cells, splitting on spaces.
// Words longer than a line are truncated.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(s) {
		w := Width(word)
		if w > width {
			word = Truncate(word, width)
			w = Width(word)
		}
		switch {
		case lineWidth == 0:
			line.WriteString(word)
			lineWidth = w
		case lineWidth+1+w <= width:
			line.WriteByte(' ')
			line.WriteString(word)
			lineWidth += 1 + w
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
			lineWidth = w
		}
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
