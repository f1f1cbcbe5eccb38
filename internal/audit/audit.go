package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/PolarWolf314/sopsmith/internal/configs"
)

// Entry represents a single audit log entry. Secret values are never
// recorded, only paths.
type Entry struct {
	Timestamp string `json:"ts"`      // RFC3339 with microseconds.
	Session   string `json:"session"` // Random ID shared by one process.
	User      string `json:"user"`    // OS user performing the action.
	Operation string `json:"op"`      // Operation name.

	// Optional fields depending on operation.
	File       string   `json:"file,omitempty"`        // Document operated on.
	Format     string   `json:"format,omitempty"`      // Document format.
	Paths      []string `json:"paths,omitempty"`       // For set/unset.
	Count      int      `json:"count,omitempty"`       // Entries saved, imported or exported.
	PublicKey  string   `json:"public_key,omitempty"`  // For key generate/delete.
	OutputPath string   `json:"output_path,omitempty"` // For export.
}

var sessionID = uuid.NewString()

// SessionID returns the ID stamped on every entry logged by this process.
func SessionID() string {
	return sessionID
}

// New returns an entry for op with the session and user filled in.
func New(op string) Entry {
	entry := Entry{Operation: op, Session: sessionID}
	if configs.UserSettings != nil {
		entry.User = configs.UserSettings.Username
	}
	return entry
}

// Log appends an entry to the audit log.
// Failures are ignored: operations should not fail just because audit
// logging failed.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.Session == "" {
		entry.Session = sessionID
	}
	if entry.File != "" && !filepath.IsAbs(entry.File) {
		if abs, err := filepath.Abs(entry.File); err == nil {
			entry.File = abs
		}
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogPath returns the path to the audit log file.
// Returns empty string if no state directory is configured.
func LogPath() string {
	if configs.UserSettings == nil || configs.UserSettings.StatePath == "" {
		return ""
	}
	return filepath.Join(configs.UserSettings.StatePath, "audit.jsonl")
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
