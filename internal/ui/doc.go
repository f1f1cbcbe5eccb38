// Package ui provides semantic text formatting for CLI output.
//
// This package defines formatters for different types of content (code,
// paths, errors, etc.) that render appropriately based on terminal
// capabilities. When colors are available, content is colorized. When
// NO_COLOR is set or the terminal doesn't support colors, text-based
// decorations (backticks, quotes) are used instead.
//
// # Semantic Formatters
//
// Use the appropriate formatter for the content type:
//
//	ui.Code.Sprint("sopsmith show app.json")  // Commands and code
//	ui.Path.Sprint(".sops.yaml")              // File paths
//	ui.Success.Sprint("✓")                     // Success indicators
//	ui.Error.Sprint("✗")                       // Error indicators
//	ui.Warning.Sprint("[dry-run]")             // Warnings
//	ui.Info.Sprint("→")                        // Informational hints
//	ui.Highlight.Sprint("work laptop")        // User values
//	ui.Muted.Sprint("optional")               // De-emphasized text
//	ui.Key.Sprint("database.password")        // Secret paths
//	ui.Recipient.Sprint("age1...")            // age public keys
//
// # Secret Values
//
// Mask replaces a value with bullets so listings can show which entries
// exist without printing them. Columns aligns listings before colour is
// applied.
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
//
// When colors are disabled, formatters apply text decorations:
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Muted: (parentheses)
//   - Others: no decoration (self-evident from context)
package ui
