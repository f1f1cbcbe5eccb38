package sops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/utils"
)

// ManifestName is the per-directory sops configuration file.
const ManifestName = ".sops.yaml"

// DefaultEncryptedRegex limits encryption to keys that look like secrets.
const DefaultEncryptedRegex = `^(password|passwd|pass|secret|key|token|api[_-]?key|private[_-]?key|access[_-]?key|auth|credential|database[_-]?url|.*[Ss]ecret.*|.*[Kk]ey.*|.*[Tt]oken.*)$`

// Manifest mirrors the parts of .sops.yaml that sopsmith reads and writes.
type Manifest struct {
	CreationRules []CreationRule `yaml:"creation_rules"`
}

// CreationRule selects recipients for files matching PathRegex.
type CreationRule struct {
	PathRegex      string `yaml:"path_regex,omitempty"`
	EncryptedRegex string `yaml:"encrypted_regex,omitempty"`
	Age            string `yaml:"age,omitempty"`
}

// Recipients splits the comma-separated age list of the rule.
func (r CreationRule) Recipients() []string {
	var out []string
	for _, part := range strings.Split(r.Age, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RuleFor returns the first rule whose path_regex matches relPath, the
// path of a file relative to the manifest directory. A rule without a
// path_regex matches everything.
func (m Manifest) RuleFor(relPath string) (*CreationRule, error) {
	relPath = filepath.ToSlash(relPath)
	for i := range m.CreationRules {
		rule := &m.CreationRules[i]
		if rule.PathRegex == "" {
			return rule, nil
		}
		re, err := regexp.Compile(rule.PathRegex)
		if err != nil {
			return nil, fmt.Errorf("%w: path_regex %q: %v", kerrors.ErrParse, rule.PathRegex, err)
		}
		if re.MatchString(relPath) {
			return rule, nil
		}
	}
	return nil, nil
}

// NewManifest builds a manifest with one rule for fileName, wherever it
// sits below the manifest directory.
func NewManifest(fileName string, publicKeys []string, encryptedRegex string) (Manifest, error) {
	if len(publicKeys) == 0 {
		return Manifest{}, kerrors.ErrNoRecipients
	}
	if encryptedRegex == "" {
		encryptedRegex = DefaultEncryptedRegex
	}
	return Manifest{CreationRules: []CreationRule{{
		PathRegex:      "(^|/)" + regexp.QuoteMeta(fileName) + "$",
		EncryptedRegex: encryptedRegex,
		Age:            strings.Join(publicKeys, ","),
	}}}, nil
}

// FindManifestDir walks up from dir and returns the first directory that
// contains a .sops.yaml. It returns an empty string when the filesystem
// root is reached without finding one.
func FindManifestDir(dir string) (string, error) {
	return utils.FindUpward(dir, ManifestName)
}

// LoadManifest reads and parses a .sops.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrIO, path, err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrParse, path, err)
	}
	return m, nil
}

// WriteManifest creates dir/.sops.yaml. It refuses to overwrite.
func WriteManifest(dir string, m Manifest, comment string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s", kerrors.ErrManifestExists, path)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if comment != "" {
		data = append([]byte("# "+comment+"\n"), data...)
	}

	// #nosec G306 -- the manifest holds public keys only.
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, path, err)
	}
	return path, nil
}
