package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/keys"
	"github.com/PolarWolf314/sopsmith/internal/sops"
)

// InitOptions configures the manifest init workflow.
type InitOptions struct {
	// Dir receives the .sops.yaml.
	Dir string

	// FileName is the document the creation rule targets.
	FileName string

	// KeyIndexes selects keys from the key file, 1-based.
	KeyIndexes []int

	// PublicKeys are extra recipients given directly.
	PublicKeys []string

	// EncryptedRegex limits which keys sops encrypts. Empty means
	// sops.DefaultEncryptedRegex.
	EncryptedRegex string

	Tools Tools
}

// InitResult contains the outcome of a manifest init.
type InitResult struct {
	Path       string
	Recipients []string
}

// InitManifest writes a .sops.yaml with one creation rule for FileName
// encrypting to the selected keys.
//
// Returns ErrManifestExists if Dir already has one.
// Returns ErrNoRecipients if no key was selected.
// Returns ErrKeyNotFound if a key index is out of range.
func InitManifest(ctx context.Context, opts InitOptions) (*InitResult, error) {
	records, err := keys.LoadFile(opts.Tools.KeyFile)
	if err != nil {
		return nil, err
	}

	var recipients []string
	seen := map[string]bool{}
	add := func(pub string) {
		if pub != "" && !seen[pub] {
			seen[pub] = true
			recipients = append(recipients, pub)
		}
	}

	for _, n := range opts.KeyIndexes {
		if n < 1 || n > len(records) {
			return nil, fmt.Errorf("%w: key #%d, the key file has %d keys", kerrors.ErrKeyNotFound, n, len(records))
		}
		pub, err := records[n-1].PublicKey(ctx, opts.Tools.Deriver)
		if err != nil {
			return nil, fmt.Errorf("deriving public key of %s: %w", describeKey(n-1, records[n-1]), err)
		}
		add(pub)
	}
	for _, pub := range opts.PublicKeys {
		add(pub)
	}

	manifest, err := sops.NewManifest(opts.FileName, recipients, opts.EncryptedRegex)
	if err != nil {
		return nil, err
	}

	path, err := sops.WriteManifest(opts.Dir, manifest, "Created by sopsmith for "+filepath.Base(opts.FileName))
	if err != nil {
		return nil, err
	}

	entry := audit.New("init")
	entry.File = path
	entry.Count = len(recipients)
	audit.Log(entry)

	return &InitResult{Path: path, Recipients: recipients}, nil
}
