package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadStdin reads all content from stdin.
// Returns an error if stdin is a terminal (no piped data) or cannot be read.
func ReadStdin() ([]byte, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stdin: %w", err)
	}

	// If ModeCharDevice is set, stdin is connected to a terminal.
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, fmt.Errorf("no data provided on stdin (hint: pipe the value to this command)")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}

	return data, nil
}

// ReadStdinValue reads a single value from stdin, dropping one trailing
// newline.
func ReadStdinValue() (string, error) {
	data, err := ReadStdin()
	if err != nil {
		return "", err
	}
	value := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(value, "\r"), nil
}
