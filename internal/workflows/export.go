package workflows

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	"github.com/PolarWolf314/sopsmith/internal/document"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// ExportOptions configures the export workflow.
type ExportOptions struct {
	Open OpenOptions

	// Format of the plaintext output. Empty means the document's format.
	Format string

	// OutputPath is written with mode 0600. Empty means Output.
	OutputPath string

	// Output receives the plaintext when OutputPath is empty.
	Output io.Writer

	// Force allows overwriting an existing OutputPath.
	Force bool
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	Format     transcode.Format
	Entries    int
	OutputPath string
}

// Export decrypts a document and writes its entries as plaintext.
//
// Dotenv and INI output quote values with transcode.Quote, so the file can
// be imported back unchanged. JSON and YAML output are rebuilt from the
// entries with inferred types.
//
// Returns ErrFileExists if OutputPath exists and Force is not set.
func Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if opts.OutputPath != "" && !opts.Force {
		if _, err := os.Stat(opts.OutputPath); err == nil {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileExists, opts.OutputPath)
		}
	}

	opened, err := Open(ctx, opts.Open)
	if err != nil {
		return nil, err
	}

	format := opened.Document.Format
	if opts.Format != "" {
		if format, err = transcode.ParseFormat(opts.Format); err != nil {
			return nil, err
		}
	}

	data, err := Render(format, opened.Document.Entries)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, data, 0600); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, opts.OutputPath, err)
		}
	} else {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
		}
	}

	entry := audit.New("export")
	entry.File = opts.Open.Path
	entry.Format = format.String()
	entry.Count = len(opened.Document.Entries)
	entry.OutputPath = opts.OutputPath
	audit.Log(entry)

	return &ExportResult{Format: format, Entries: len(opened.Document.Entries), OutputPath: opts.OutputPath}, nil
}

// Render formats entries as plaintext in format.
func Render(format transcode.Format, entries []transcode.Entry) ([]byte, error) {
	switch format {
	case transcode.Dotenv:
		return []byte(transcode.RenderDotenv(entries)), nil
	case transcode.INI:
		return []byte(transcode.RenderINI(entries)), nil
	}

	tree, err := transcode.Unflatten(entries)
	if err != nil {
		return nil, err
	}
	if format == transcode.YAML {
		return document.EncodeYAML(tree)
	}
	return document.EncodeJSON(tree)
}
