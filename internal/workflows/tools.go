package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/configs"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/keys"
	logger "github.com/PolarWolf314/sopsmith/internal/logging"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/store"
)

// Decryptor decrypts a sops document to JSON.
type Decryptor interface {
	Decrypt(ctx context.Context, path string, ageKey string) ([]byte, error)
}

// Cipher is the sops process boundary.
type Cipher interface {
	Decryptor
	store.Encryptor
}

// Tools bundles the collaborators every workflow needs.
type Tools struct {
	Cipher  Cipher
	Deriver keys.Deriver
	KeyFile string
	Logger  logger.Logger
}

// NewTools builds Tools from the user configuration. A non-empty keyFile
// takes precedence over SOPS_AGE_KEY_FILE and the configured key file.
func NewTools(config *configs.Config, keyFile string, log logger.Logger) Tools {
	if keyFile == "" {
		keyFile = config.ResolveKeyFile()
	}
	return Tools{
		Cipher:  sops.NewRunner(config.SopsBinary, keyFile, log),
		Deriver: keys.DefaultDeriver(config.AgeKeygenBinary),
		KeyFile: keyFile,
		Logger:  log,
	}
}

// KeyMismatchError is returned when the chosen key cannot decrypt a
// document. It matches kerrors.ErrKeyMismatch with errors.Is.
type KeyMismatchError struct {
	Path string

	// Candidates describes the local keys whose public key is a recipient
	// of the document, as "#n comment" with n 1-based.
	Candidates []string

	// Recipients lists the document's recipients when no local key matches.
	Recipients []string

	Err error
}

func (e *KeyMismatchError) Error() string {
	var hint string
	switch {
	case len(e.Candidates) > 0:
		hint = "matching keys: " + strings.Join(e.Candidates, ", ")
	case len(e.Recipients) > 0:
		hint = "recipients: " + strings.Join(e.Recipients, ", ")
	default:
		hint = "the document lists no age recipients"
	}
	return fmt.Sprintf("%s: %s (%s)", kerrors.ErrKeyMismatch, e.Path, hint)
}

func (e *KeyMismatchError) Is(target error) bool {
	return target == kerrors.ErrKeyMismatch
}

func (e *KeyMismatchError) Unwrap() error { return e.Err }

// describeKey renders record i as "#n comment".
func describeKey(i int, rec *keys.Record) string {
	return fmt.Sprintf("#%d %s", i+1, rec.Label("(no comment)"))
}
