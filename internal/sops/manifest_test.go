package sops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

func TestFindManifestDir_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ManifestName, "creation_rules: []\n")

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindManifestDir(nested)
	require.NoError(t, err)

	want, _ := filepath.Abs(root)
	assert.Equal(t, want, got)
}

func TestFindManifestDir_NearestWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ManifestName, "creation_rules: []\n")
	inner := filepath.Join(root, "inner")
	require.NoError(t, os.MkdirAll(inner, 0755))
	writeFile(t, inner, ManifestName, "creation_rules: []\n")

	got, err := FindManifestDir(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestNewManifest_WriteAndLoad(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManifest("secrets.env", []string{"age1aaa", "age1bbb"}, "")
	require.NoError(t, err)

	path, err := WriteManifest(dir, m, "SOPS configuration for secrets.env")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# SOPS configuration for secrets.env")

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, loaded.CreationRules, 1)

	rule := loaded.CreationRules[0]
	assert.Equal(t, `(^|/)secrets\.env$`, rule.PathRegex)
	assert.Equal(t, DefaultEncryptedRegex, rule.EncryptedRegex)
	assert.Equal(t, []string{"age1aaa", "age1bbb"}, rule.Recipients())

	_, err = WriteManifest(dir, m, "")
	assert.ErrorIs(t, err, kerrors.ErrManifestExists)
}

func TestNewManifest_RequiresKeys(t *testing.T) {
	_, err := NewManifest("x.json", nil, "")
	assert.ErrorIs(t, err, kerrors.ErrNoRecipients)
}

func TestManifest_RuleFor(t *testing.T) {
	m := Manifest{CreationRules: []CreationRule{
		{PathRegex: `\.env$`, Age: "age1env"},
		{PathRegex: `^prod/`, Age: "age1prod"},
	}}

	rule, err := m.RuleFor("services/api/.env")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "age1env", rule.Age)

	rule, err = m.RuleFor("prod/db.yaml")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "age1prod", rule.Age)

	rule, err = m.RuleFor("dev/db.yaml")
	require.NoError(t, err)
	assert.Nil(t, rule)

	bad := Manifest{CreationRules: []CreationRule{{PathRegex: "("}}}
	_, err = bad.RuleFor("x")
	assert.ErrorIs(t, err, kerrors.ErrParse)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), ManifestName))
	assert.ErrorIs(t, err, kerrors.ErrManifestNotFound)
}
