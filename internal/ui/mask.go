package ui

import (
	"strings"
	"unicode/utf8"
)

const (
	maskRune   = "•"
	maskMaxLen = 12
)

// Mask hides a secret value, keeping a hint of its length. Empty values
// stay empty.
func Mask(value string) string {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return ""
	}
	if n > maskMaxLen {
		n = maskMaxLen
	}
	return strings.Repeat(maskRune, n)
}

// Columns renders rows as left-aligned columns separated by two spaces.
// Widths are computed on the plain cells, before format is applied, so
// colored output stays aligned.
func Columns(rows [][]string, format func(col int, cell string) string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			out := cell
			if format != nil {
				out = format(i, cell)
			}
			b.WriteString(out)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
