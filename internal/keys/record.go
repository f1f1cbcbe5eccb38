package keys

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// SecretKeyPrefix starts every age private key.
const SecretKeyPrefix = "AGE-SECRET-KEY-"

const (
	createdComment   = "created:"
	publicKeyComment = "public key:"
)

// Record is one age private key from the key file.
type Record struct {
	Secret  string
	Comment string

	// Declared is the public key written in a "# public key:" comment, if
	// any. It is only used when derivation fails.
	Declared string

	publicKey string
	derived   bool
	deriveErr error
}

// PublicKey returns the public key of r, deriving it with d on first use.
// The result, including a failure, is cached.
func (r *Record) PublicKey(ctx context.Context, d Deriver) (string, error) {
	if !r.derived {
		r.publicKey, r.deriveErr = d.Derive(ctx, r.Secret)
		r.derived = true
		if r.deriveErr != nil && r.Declared != "" {
			r.publicKey, r.deriveErr = r.Declared, nil
		}
	}
	return r.publicKey, r.deriveErr
}

// Label is the comment of r, or fallback when it has none.
func (r *Record) Label(fallback string) string {
	if r.Comment != "" {
		return r.Comment
	}
	return fallback
}

// Parse reads key file content. A comment applies to the next key only if
// no other non-blank line comes between them.
func Parse(content string) []*Record {
	var records []*Record
	var comment, declared string

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			text := strings.TrimSpace(strings.TrimLeft(line, "#"))
			switch {
			case strings.HasPrefix(text, publicKeyComment):
				declared = strings.TrimSpace(strings.TrimPrefix(text, publicKeyComment))
			case strings.HasPrefix(text, createdComment):
			default:
				comment = text
			}
		case strings.HasPrefix(line, SecretKeyPrefix):
			records = append(records, &Record{Secret: line, Comment: comment, Declared: declared})
			comment, declared = "", ""
		default:
			comment, declared = "", ""
		}
	}
	return records
}

// LoadFile reads the key file at path. A missing file yields no keys.
func LoadFile(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}
	return Parse(string(data)), nil
}
