package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

const (
	templateKey   = "example_key"
	templateValue = "example_value"
)

// CreateOptions configures the create workflow.
type CreateOptions struct {
	// Dir is the directory the document is created in.
	Dir string

	// Name is the file name. Empty means "secrets". The format extension
	// is appended unless the name already has it or starts with a dot.
	Name string

	Format transcode.Format

	Tools Tools
}

// CreateResult contains the outcome of a create operation.
type CreateResult struct {
	Path   string
	Format transcode.Format
}

// Create writes a one-entry template document and encrypts it in place
// with the creation rules of the nearest .sops.yaml.
//
// Returns ErrFileExists if the target already exists.
// If sops fails the half-written file is removed.
func Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	path := filepath.Join(opts.Dir, NewFileName(opts.Name, opts.Format))
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrFileExists, path)
	}

	plaintext, err := document.EncodeJSON(Template(opts.Format))
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileExists, path)
		}
		return nil, fmt.Errorf("%w: creating %s: %v", kerrors.ErrIO, path, err)
	}
	_, werr := f.Write(plaintext)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: writing %s", kerrors.ErrIO, path)
	}

	if err := opts.Tools.Cipher.EncryptInPlace(ctx, path, opts.Format, ""); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			opts.Tools.Logger.Errorf("Could not remove unencrypted %s: %v", path, rmErr)
		}
		return nil, err
	}

	entry := audit.New("create")
	entry.File = path
	entry.Format = opts.Format.String()
	audit.Log(entry)

	return &CreateResult{Path: path, Format: opts.Format}, nil
}

// NewFileName resolves the file name of a new document.
func NewFileName(name string, format transcode.Format) string {
	ext := "." + format.Extension()
	switch {
	case name == "":
		return "secrets" + ext
	case strings.HasPrefix(name, "."), strings.HasSuffix(name, ext):
		return name
	default:
		return name + ext
	}
}

// Template is the initial content of a new document. INI keeps its keys
// in the DEFAULT section.
func Template(format transcode.Format) document.Value {
	body := document.ObjectValue(document.Member{Key: templateKey, Value: document.StringValue(templateValue)})
	if format == transcode.INI {
		return document.ObjectValue(document.Member{Key: transcode.DefaultSection, Value: body})
	}
	return body
}
