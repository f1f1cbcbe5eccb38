package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/PolarWolf314/sopsmith/internal/keys"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
	"github.com/PolarWolf314/sopsmith/internal/utils"
)

// DefaultPatterns match every file sopsmith can open.
var DefaultPatterns = []string{"**/*.{json,yaml,yml,ini,env}", "**/.env"}

// ExcludedPatterns are never reported.
var ExcludedPatterns = []string{"**/.git/**", "**/node_modules/**", "**/vendor/**", "**/" + sops.ManifestName}

// FileStatus describes whether a file is usable by sopsmith.
type FileStatus string

const (
	// StatusReady means the file is a sops document and a local key is a recipient.
	StatusReady FileStatus = "ready"
	// StatusNoKey means the file is a sops document but no local key is a recipient.
	StatusNoKey FileStatus = "no_key"
	// StatusUnencrypted means a .sops.yaml rule covers the file but it has no sops metadata.
	StatusUnencrypted FileStatus = "unencrypted"
)

// FileStatusInfo holds information about one discovered file.
type FileStatusInfo struct {
	// Path is relative to the status root, slash-separated.
	Path   string           `json:"path"`
	Format transcode.Format `json:"format"`
	Status FileStatus       `json:"status"`

	Recipients      int `json:"recipients"`
	EncryptedFields int `json:"encrypted_fields"`

	// Keys describes the local keys that can decrypt the file.
	Keys []string `json:"keys,omitempty"`

	// HasRule is true when a .sops.yaml creation rule matches the file.
	HasRule bool `json:"has_rule"`
}

// StatusSummary holds counts of files by status.
type StatusSummary struct {
	Ready       int `json:"ready"`
	NoKey       int `json:"no_key"`
	Unencrypted int `json:"unencrypted"`
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Root is the directory to scan. Empty means the working directory.
	Root string

	// Patterns are doublestar globs relative to Root. Empty means
	// DefaultPatterns.
	Patterns []string

	Tools Tools
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	Root    string           `json:"root"`
	Files   []FileStatusInfo `json:"files"`
	Summary StatusSummary    `json:"summary"`
}

// Status reports the sops documents below Root, and the files a
// .sops.yaml rule expects to be encrypted but are not.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", opts.Root, err)
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	found, err := discover(root, patterns)
	if err != nil {
		return nil, err
	}

	records, err := keys.LoadFile(opts.Tools.KeyFile)
	if err != nil {
		return nil, err
	}

	rules := newRuleCache(opts.Tools)
	result := &StatusResult{Root: root}
	for _, rel := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs := filepath.Join(root, filepath.FromSlash(rel))
		info := FileStatusInfo{Path: rel, Format: transcode.DetectFormat(abs), HasRule: rules.covers(abs)}

		recipients, err := sops.Recipients(abs)
		if err != nil {
			opts.Tools.Logger.Debugf("Skipping %s: %v", rel, err)
			continue
		}
		info.Recipients = len(recipients)

		if len(recipients) == 0 {
			if !info.HasRule {
				continue
			}
			info.Status = StatusUnencrypted
			result.Summary.Unencrypted++
			result.Files = append(result.Files, info)
			continue
		}

		if fields, err := sops.EncryptedFields(abs); err == nil {
			info.EncryptedFields = len(fields)
		}
		for _, i := range keys.Matching(ctx, recipients, records, opts.Tools.Deriver) {
			info.Keys = append(info.Keys, describeKey(i, records[i]))
		}
		if len(info.Keys) > 0 {
			info.Status = StatusReady
			result.Summary.Ready++
		} else {
			info.Status = StatusNoKey
			result.Summary.NoKey++
		}
		result.Files = append(result.Files, info)
	}

	return result, nil
}

// discover returns the slash-separated paths below root matching any of
// patterns and none of ExcludedPatterns, sorted and without duplicates.
func discover(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := map[string]bool{}
	var out []string

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}

	sort.Strings(out)
	return out, nil
}

func excluded(rel string) bool {
	for _, p := range ExcludedPatterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ruleCache loads each .sops.yaml once.
type ruleCache struct {
	tools     Tools
	manifests map[string]*sops.Manifest
}

func newRuleCache(tools Tools) *ruleCache {
	return &ruleCache{tools: tools, manifests: map[string]*sops.Manifest{}}
}

func (c *ruleCache) covers(abs string) bool {
	dir, err := sops.FindManifestDir(filepath.Dir(abs))
	if err != nil || dir == "" {
		return false
	}

	m, ok := c.manifests[dir]
	if !ok {
		m, err = sops.LoadManifest(filepath.Join(dir, sops.ManifestName))
		if err != nil {
			c.tools.Logger.Warnf("Ignoring %s: %v", filepath.Join(dir, sops.ManifestName), err)
		}
		c.manifests[dir] = m
	}
	if m == nil {
		return false
	}

	rule, err := m.RuleFor(utils.RelativeTo(dir, abs))
	return err == nil && rule != nil
}
