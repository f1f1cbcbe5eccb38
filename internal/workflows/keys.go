package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/keys"
	"github.com/PolarWolf314/sopsmith/internal/sops"
)

// KeyInfo describes one key of the key file. The secret is never exposed.
type KeyInfo struct {
	// Index is 1-based, matching --key-index.
	Index     int
	Comment   string
	PublicKey string

	// Err is set when the public key could not be derived.
	Err error
}

// ListKeysOptions configures the key listing workflow.
type ListKeysOptions struct {
	// Query filters by comment or public key, ignoring case.
	Query string

	Tools Tools
}

// ListKeys returns the keys of the key file matching Query.
func ListKeys(ctx context.Context, opts ListKeysOptions) ([]KeyInfo, error) {
	records, err := keys.LoadFile(opts.Tools.KeyFile)
	if err != nil {
		return nil, err
	}
	return describeKeys(ctx, records, keys.Filter(ctx, opts.Query, records, opts.Tools.Deriver), opts.Tools.Deriver), nil
}

// GenerateKey appends a new key to the key file, creating it if needed.
func GenerateKey(ctx context.Context, comment string, tools Tools) (*KeyInfo, error) {
	rec, err := keys.Generate(tools.KeyFile, comment, time.Now())
	if err != nil {
		return nil, err
	}

	records, err := keys.LoadFile(tools.KeyFile)
	if err != nil {
		return nil, err
	}

	info := &KeyInfo{Index: len(records), Comment: rec.Comment}
	info.PublicKey, info.Err = rec.PublicKey(ctx, tools.Deriver)

	entry := audit.New("keys.generate")
	entry.File = tools.KeyFile
	entry.PublicKey = info.PublicKey
	audit.Log(entry)

	return info, nil
}

// DeleteKey removes the index-th key (1-based) from the key file.
func DeleteKey(ctx context.Context, index int, tools Tools) (*KeyInfo, error) {
	records, err := keys.LoadFile(tools.KeyFile)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(records) {
		return nil, fmt.Errorf("%w: key #%d, the key file has %d keys", kerrors.ErrKeyNotFound, index, len(records))
	}

	rec := records[index-1]
	info := &KeyInfo{Index: index, Comment: rec.Comment}
	info.PublicKey, info.Err = rec.PublicKey(ctx, tools.Deriver)

	if err := keys.Delete(tools.KeyFile, rec.Secret); err != nil {
		return nil, err
	}

	entry := audit.New("keys.delete")
	entry.File = tools.KeyFile
	entry.PublicKey = info.PublicKey
	audit.Log(entry)

	return info, nil
}

// MatchResult lists a document's recipients and the local keys among them.
type MatchResult struct {
	Recipients []string
	Keys       []KeyInfo

	// AutoDetected is the index of the key Open would pick, or 0.
	AutoDetected int
}

// MatchKeys reports which local keys can decrypt the document at path.
func MatchKeys(ctx context.Context, path string, tools Tools) (*MatchResult, error) {
	recipients, err := sops.Recipients(path)
	if err != nil {
		return nil, err
	}
	records, err := keys.LoadFile(tools.KeyFile)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{Recipients: recipients}
	result.Keys = describeKeys(ctx, records, keys.Matching(ctx, recipients, records, tools.Deriver), tools.Deriver)
	if i, ok := keys.AutoDetect(ctx, recipients, records, tools.Deriver); ok {
		result.AutoDetected = i + 1
	}
	return result, nil
}

func describeKeys(ctx context.Context, records []*keys.Record, indexes []int, d keys.Deriver) []KeyInfo {
	out := make([]KeyInfo, 0, len(indexes))
	for _, i := range indexes {
		info := KeyInfo{Index: i + 1, Comment: records[i].Comment}
		info.PublicKey, info.Err = records[i].PublicKey(ctx, d)
		out = append(out, info)
	}
	return out
}
