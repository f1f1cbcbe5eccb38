package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/keys"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// OpenOptions configures the open workflow.
type OpenOptions struct {
	// Path is the encrypted document to open.
	Path string

	// Format overrides detection from the file name when not empty.
	Format string

	// Key is an explicit age private key. It takes precedence over
	// KeyIndex and auto-detection.
	Key string

	// KeyIndex selects a key from the key file, 1-based. Zero means
	// auto-detect from the document recipients.
	KeyIndex int

	Tools Tools
}

// OpenResult contains the decrypted document.
type OpenResult struct {
	Document store.Document

	// KeyLabel describes the key used, or is empty when sops was left to
	// try every key in the key file.
	KeyLabel string

	// AutoDetected is true when the key was picked from the recipients.
	AutoDetected bool
}

// Open decrypts a document and flattens it into entries.
//
// The key is chosen in this order: an explicit key, the KeyIndex-th key of
// the key file, the first key whose public key is a recipient, and
// finally the whole key file. When a chosen key fails to decrypt the error
// is a *KeyMismatchError and no other key is tried.
//
// Returns ErrFileNotFound if the document does not exist.
// Returns ErrKeyNotFound if KeyIndex is out of range.
// Returns ErrParse if sops output is not valid JSON.
func Open(ctx context.Context, opts OpenOptions) (*OpenResult, error) {
	log := opts.Tools.Logger

	if _, err := os.Stat(opts.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, opts.Path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}

	format := transcode.DetectFormat(opts.Path)
	if opts.Format != "" {
		f, err := transcode.ParseFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	recipients, err := sops.RecipientsAs(opts.Path, format)
	if err != nil {
		log.Warnf("Could not read recipients of %s: %v", opts.Path, err)
	}

	records, err := keys.LoadFile(opts.Tools.KeyFile)
	if err != nil {
		return nil, err
	}

	result := &OpenResult{}
	ageKey := opts.Key
	switch {
	case ageKey != "":
		result.KeyLabel = "explicit key"
	case opts.KeyIndex != 0:
		if opts.KeyIndex < 1 || opts.KeyIndex > len(records) {
			return nil, fmt.Errorf("%w: key #%d, the key file has %d keys", kerrors.ErrKeyNotFound, opts.KeyIndex, len(records))
		}
		rec := records[opts.KeyIndex-1]
		ageKey = rec.Secret
		result.KeyLabel = describeKey(opts.KeyIndex-1, rec)
	default:
		if i, ok := keys.AutoDetect(ctx, recipients, records, opts.Tools.Deriver); ok {
			ageKey = records[i].Secret
			result.KeyLabel = describeKey(i, records[i])
			result.AutoDetected = true
			log.Infof("Auto-detected key %s", result.KeyLabel)
		} else {
			log.Debugf("No key in %s matches the recipients of %s", opts.Tools.KeyFile, opts.Path)
		}
	}

	plaintext, err := opts.Tools.Cipher.Decrypt(ctx, opts.Path, ageKey)
	if err != nil {
		if ageKey == "" {
			return nil, err
		}
		return nil, mismatch(ctx, opts, recipients, records, err)
	}

	root, err := document.DecodeJSON(plaintext)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", opts.Path, err)
	}

	fields, err := sops.EncryptedFieldsAs(opts.Path, format)
	if err != nil {
		log.Warnf("Could not read encrypted fields of %s: %v", opts.Path, err)
		fields = sops.NewFieldSet()
	}

	result.Document = store.Document{
		Path:       opts.Path,
		Format:     format,
		Entries:    transcode.FromDocument(format, root),
		Encrypted:  fields,
		Recipients: recipients,
		Key:        ageKey,
	}

	entry := audit.New("open")
	entry.File = opts.Path
	entry.Format = format.String()
	entry.Count = len(result.Document.Entries)
	audit.Log(entry)

	return result, nil
}

// OpenSession opens a document into a new session.
func OpenSession(ctx context.Context, opts OpenOptions, sessionOpts ...store.Option) (*store.Session, *OpenResult, error) {
	result, err := Open(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	session := store.NewSession(opts.Tools.Cipher, opts.Tools.Logger, sessionOpts...)
	session.Load(result.Document)
	return session, result, nil
}

func mismatch(ctx context.Context, opts OpenOptions, recipients []string, records []*keys.Record, cause error) error {
	if errors.Is(cause, kerrors.ErrBinaryNotFound) {
		return cause
	}
	e := &KeyMismatchError{Path: opts.Path, Err: cause}
	for _, i := range keys.Matching(ctx, recipients, records, opts.Tools.Deriver) {
		e.Candidates = append(e.Candidates, describeKey(i, records[i]))
	}
	if len(e.Candidates) == 0 {
		e.Recipients = recipients
	}
	return e
}
