package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter styles one kind of CLI output. Without colour it falls back to
// a plain prefix and suffix, or to nothing when the content speaks for
// itself.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments like fmt.Sprint and styles the result.
func (f Formatter) Sprint(a ...any) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats like fmt.Sprintf and styles the result.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline appends a newline unless s already ends with one.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor honours NO_COLOR (https://no-color.org/) and whatever
// fatih/color detected about the terminal.
func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

// Document content. None of these decorate their text without colour, so
// paths and keys can be copied straight from the output.
var (
	// Key formats flattened secret paths such as database.password.
	Key = Formatter{color.New(color.Bold), "", ""}

	// Recipient formats age public keys.
	Recipient = Formatter{color.New(color.FgCyan), "", ""}

	// Path formats document and key file paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}
)

// Commands and user input.
var (
	// Code formats commands the user can run. `backticks` without colour.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Flag formats flags such as --reveal.
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	// Highlight formats free text the user typed, such as a key comment or
	// a search query. 'single quotes' without colour.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary details. (parentheses) without colour.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// Status markers. Undecorated without colour.
var (
	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}
)
