package workflows

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// EditOptions configures the edit workflow.
type EditOptions struct {
	Open OpenOptions

	// Set assigns values, updating the first entry with the same path or
	// appending a new one.
	Set []transcode.Entry

	// Unset removes the first entry with each path.
	Unset []string

	// IgnoreMissing makes unsetting an absent path a no-op.
	IgnoreMissing bool

	// Operation names the change in the audit log. Empty means "edit".
	Operation string
}

// EditResult contains the outcome of an edit.
type EditResult struct {
	Save *store.SaveResult

	// Added counts Set entries whose path did not exist yet.
	Added   int
	Updated int
	Removed int
}

// Edit opens a document, applies the changes and saves it.
//
// Nothing is written when the changes leave the document unmodified.
// Returns ErrEntryNotFound when unsetting a missing path, unless
// IgnoreMissing is set.
func Edit(ctx context.Context, opts EditOptions) (*EditResult, error) {
	session, _, err := OpenSession(ctx, opts.Open)
	if err != nil {
		return nil, err
	}

	result := &EditResult{}
	var paths []string

	for _, e := range opts.Set {
		if e.Path == "" {
			return nil, fmt.Errorf("%w: empty path", kerrors.ErrInvalidPath)
		}
		if i, ok := session.Find(e.Path); ok {
			if session.Entries()[i].Value == e.Value {
				continue
			}
			result.Updated++
		} else {
			result.Added++
		}
		if err := session.Set(e.Path, e.Value); err != nil {
			return nil, err
		}
		paths = append(paths, e.Path)
	}

	for _, p := range opts.Unset {
		if _, ok := session.Find(p); !ok && opts.IgnoreMissing {
			continue
		}
		if err := session.Unset(p); err != nil {
			return nil, err
		}
		result.Removed++
		paths = append(paths, p)
	}

	if !session.Modified() {
		opts.Open.Tools.Logger.Infof("No changes to save in %s", opts.Open.Path)
		return result, nil
	}

	op := opts.Operation
	if op == "" {
		op = "edit"
	}
	saved, err := Save(ctx, session, op, paths)
	if err != nil {
		return nil, err
	}
	result.Save = saved
	return result, nil
}
