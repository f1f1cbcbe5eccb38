// Package utils provides shared utility functions for sopsmith.
//
// # Filesystem Utilities
//
//   - FindUpward: walks up directories to find a named file
//   - RelativeTo: slash-separated path relative to a base directory
//   - FormatPaths: formats file paths for human-readable output
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//
// # I/O Utilities
//
//   - ReadStdin, ReadStdinValue: read piped data from standard input
//
// # Terminal Utilities
//
//   - IsTerminal, IsStdoutTerminal: terminal detection
//   - ReadSecret: hidden input for secret values
package utils
