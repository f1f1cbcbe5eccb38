package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// Generate creates a new X25519 identity and appends it to the key file at
// path, creating the file with 0600 permissions if needed. The comment, if
// given, becomes the key's label.
func Generate(path, comment string, now time.Time) (*Record, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	pub := id.Recipient().String()

	var b strings.Builder
	if comment != "" {
		b.WriteString("# " + comment + "\n")
	}
	b.WriteString("# " + createdComment + " " + now.Format(time.RFC3339) + "\n")
	b.WriteString("# " + publicKeyComment + " " + pub + "\n")
	b.WriteString(id.String() + "\n")

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", kerrors.ErrIO, filepath.Dir(path), err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	content := string(existing)
	if content != "" {
		content = strings.TrimRight(content, "\n") + "\n\n"
	}
	content += b.String()

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, path, err)
	}

	return &Record{
		Secret:    id.String(),
		Comment:   comment,
		Declared:  pub,
		publicKey: pub,
		derived:   true,
	}, nil
}

// Delete removes the line holding secret from the key file at path,
// together with the comment lines directly above it. Neighbouring keys are
// kept even when no blank line separates them.
func Delete(path, secret string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", kerrors.ErrKeyNotFound, path)
		}
		return fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	lines := strings.Split(string(data), "\n")
	end := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == secret {
			end = i
			break
		}
	}
	if end < 0 {
		return kerrors.ErrKeyNotFound
	}
	start := end
	for start > 0 && strings.HasPrefix(strings.TrimSpace(lines[start-1]), "#") {
		start--
	}

	kept := append(lines[:start:start], lines[end+1:]...)
	if start > 0 && start < len(kept) && isBlank(kept[start-1]) && isBlank(kept[start]) {
		kept = append(kept[:start], kept[start+1:]...)
	}

	content := strings.Trim(strings.Join(kept, "\n"), "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, path, err)
	}
	return nil
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }
