package workflows

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// ImportOptions configures the import workflow.
type ImportOptions struct {
	Open OpenOptions

	// Source is a plaintext dotenv, INI, JSON or YAML file.
	Source string

	// SourceFormat overrides detection from the source file name.
	SourceFormat string

	// Replace discards the existing entries instead of merging.
	Replace bool

	// Expand reads dotenv sources with shell-style ${VAR} expansion.
	// Keys are then imported in sorted order.
	Expand bool

	// DryRun reports what would change without saving.
	DryRun bool
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Added   []string
	Updated []string

	// Removed is only filled in replace mode.
	Removed []string

	Save *store.SaveResult
}

// Import reads plaintext entries from Source into an encrypted document.
//
// In merge mode existing paths are updated and new ones appended. In
// replace mode the document ends up holding exactly the source entries.
func Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	incoming, err := ReadPlaintext(opts.Source, opts.SourceFormat, opts.Expand)
	if err != nil {
		return nil, err
	}

	session, _, err := OpenSession(ctx, opts.Open)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	if opts.Replace {
		keep := make(map[string]bool, len(incoming))
		for _, e := range incoming {
			keep[e.Path] = true
		}
		for _, e := range session.Entries() {
			if !keep[e.Path] {
				result.Removed = append(result.Removed, e.Path)
			}
		}
		for _, p := range result.Removed {
			if err := session.Unset(p); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range incoming {
		i, ok := session.Find(e.Path)
		switch {
		case !ok:
			result.Added = append(result.Added, e.Path)
		case session.Entries()[i].Value != e.Value:
			result.Updated = append(result.Updated, e.Path)
		default:
			continue
		}
		if err := session.Set(e.Path, e.Value); err != nil {
			return nil, err
		}
	}

	if opts.DryRun || !session.Modified() {
		return result, nil
	}

	var paths []string
	paths = append(paths, result.Added...)
	paths = append(paths, result.Updated...)
	paths = append(paths, result.Removed...)
	saved, err := Save(ctx, session, "import", paths)
	if err != nil {
		return nil, err
	}
	result.Save = saved
	return result, nil
}

// ReadPlaintext reads entries from a plaintext file. format overrides
// detection from the file name when not empty.
func ReadPlaintext(path, format string, expand bool) ([]transcode.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	f := transcode.DetectFormat(path)
	if format != "" {
		if f, err = transcode.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	switch f {
	case transcode.Dotenv:
		if expand {
			return readExpandedDotenv(string(data))
		}
		return transcode.ParseDotenv(string(data)), nil
	case transcode.INI:
		return transcode.ParseINI(string(data)), nil
	case transcode.YAML:
		root, err := document.DecodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return transcode.Flatten(root, ""), nil
	default:
		root, err := document.DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return transcode.Flatten(root, ""), nil
	}
}

func readExpandedDotenv(text string) ([]transcode.Entry, error) {
	values, err := godotenv.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]transcode.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, transcode.Entry{Path: k, Value: values[k]})
	}
	return entries, nil
}
