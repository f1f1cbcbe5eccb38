package utils

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ReadSecret prompts for a value without echoing input.
// Returns an error if stdin is not a terminal.
func ReadSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot read value: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return "", fmt.Errorf("failed to read value: %w", err)
	}

	return string(value), nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTerminal returns true if stdout is a terminal.
func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
