package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

const auditTimeLayout = "2006-01-02T15:04:05.000000Z"

// LogOptions configures the audit log query.
type LogOptions struct {
	// Limit keeps only the most recent N entries. Zero means no limit.
	Limit int

	// Reverse lists the most recent entries first.
	Reverse bool

	// File keeps entries about this document. Relative paths are resolved
	// against the working directory.
	File string

	// Operations is a comma-separated list of operation names.
	Operations string

	// Since and Until are inclusive YYYY-MM-DD bounds.
	Since string
	Until string
}

// LogResult contains the filtered audit entries.
type LogResult struct {
	Entries []audit.Entry

	// Total is the number of entries before filtering.
	Total int
}

// Log reads and filters the audit log.
//
// Returns ErrNoAuditLog if nothing has been logged yet.
// Returns ErrInvalidDateFormat if Since or Until is not YYYY-MM-DD.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	logPath := audit.LogPath()
	if logPath == "" {
		return nil, kerrors.ErrNoAuditLog
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, kerrors.ErrNoAuditLog
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading audit log: %v", kerrors.ErrIO, err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	result := &LogResult{Total: len(entries)}
	filtered := entries

	if opts.File != "" {
		file := opts.File
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool { return e.File == file })
	}

	if opts.Operations != "" {
		var ops []string
		for _, op := range strings.Split(opts.Operations, ",") {
			ops = append(ops, strings.ToLower(strings.TrimSpace(op)))
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return slices.Contains(ops, strings.ToLower(e.Operation))
		})
	}

	if opts.Since != "" {
		since, err := time.Parse(time.DateOnly, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Since)
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.Before(since)
		})
	}

	if opts.Until != "" {
		until, err := time.Parse(time.DateOnly, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Until)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.After(until)
		})
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}
	if opts.Reverse {
		slices.Reverse(filtered)
	}

	result.Entries = filtered
	return result, nil
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	var out []audit.Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(auditTimeLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDateTime renders an audit timestamp as "YYYY-MM-DD HH:MM:SS" in
// local time, or returns it unchanged when it cannot be parsed.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return ts
	}
	return t.Local().Format(time.DateTime)
}

// FormatDetails summarises the operation-specific fields of an entry.
func FormatDetails(e audit.Entry) string {
	var parts []string
	if e.File != "" {
		parts = append(parts, e.File)
	}
	if len(e.Paths) > 0 {
		parts = append(parts, strings.Join(e.Paths, ", "))
	}
	if e.Count > 0 {
		parts = append(parts, fmt.Sprintf("%d entries", e.Count))
	}
	if e.OutputPath != "" {
		parts = append(parts, "-> "+e.OutputPath)
	}
	if e.PublicKey != "" {
		parts = append(parts, e.PublicKey)
	}
	return strings.Join(parts, "  ")
}
