package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

func TestNewFileName(t *testing.T) {
	tests := []struct {
		name   string
		format transcode.Format
		want   string
	}{
		{"", transcode.Dotenv, "secrets.env"},
		{"", transcode.YAML, "secrets.yaml"},
		{"prod", transcode.JSON, "prod.json"},
		{"prod.json", transcode.JSON, "prod.json"},
		{".env.production", transcode.Dotenv, ".env.production"},
		{"app", transcode.INI, "app.ini"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFileName(tt.name, tt.format))
		})
	}
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t, "work")

	t.Run("EncryptsTemplate", func(t *testing.T) {
		cipher := newFakeCipher(env.publicKey(t, 0))
		result, err := Create(context.Background(), CreateOptions{Dir: env.dir, Name: "prod", Format: transcode.JSON, Tools: env.tools(cipher)})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(env.dir, "prod.json"), result.Path)
		assert.JSONEq(t, `{"example_key":"example_value"}`, string(cipher.plaintext[result.Path]))

		recipients, err := sops.Recipients(result.Path)
		require.NoError(t, err)
		assert.Equal(t, []string{env.publicKey(t, 0)}, recipients)

		_, err = Create(context.Background(), CreateOptions{Dir: env.dir, Name: "prod", Format: transcode.JSON, Tools: env.tools(cipher)})
		assert.ErrorIs(t, err, kerrors.ErrFileExists)
	})

	t.Run("INIUsesDefaultSection", func(t *testing.T) {
		cipher := newFakeCipher(env.publicKey(t, 0))
		result, err := Create(context.Background(), CreateOptions{Dir: env.dir, Format: transcode.INI, Tools: env.tools(cipher)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"DEFAULT":{"example_key":"example_value"}}`, string(cipher.plaintext[result.Path]))
	})

	t.Run("RemovesFileWhenSopsFails", func(t *testing.T) {
		cipher := newFakeCipher(env.publicKey(t, 0))
		cipher.encryptErr = errors.New("no matching creation rules found")
		_, err := Create(context.Background(), CreateOptions{Dir: env.dir, Name: "broken", Format: transcode.YAML, Tools: env.tools(cipher)})
		assert.ErrorIs(t, err, kerrors.ErrEncryptFailed)
		assert.NoFileExists(t, filepath.Join(env.dir, "broken.yaml"))
	})
}

func TestInitManifest(t *testing.T) {
	env := newTestEnv(t, "work", "laptop")
	dir := t.TempDir()

	result, err := InitManifest(context.Background(), InitOptions{
		Dir:        dir,
		FileName:   "secrets.json",
		KeyIndexes: []int{2, 2},
		PublicKeys: []string{"age1extra"},
		Tools:      env.tools(newFakeCipher("")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{env.publicKey(t, 1), "age1extra"}, result.Recipients)

	m, err := sops.LoadManifest(result.Path)
	require.NoError(t, err)
	require.Len(t, m.CreationRules, 1)
	assert.Equal(t, []string{env.publicKey(t, 1), "age1extra"}, m.CreationRules[0].Recipients())
	assert.Equal(t, sops.DefaultEncryptedRegex, m.CreationRules[0].EncryptedRegex)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Created by sopsmith for secrets.json\n"))

	_, err = InitManifest(context.Background(), InitOptions{Dir: dir, FileName: "x.json", PublicKeys: []string{"age1x"}, Tools: env.tools(newFakeCipher(""))})
	assert.ErrorIs(t, err, kerrors.ErrManifestExists)

	_, err = InitManifest(context.Background(), InitOptions{Dir: t.TempDir(), FileName: "x.json", Tools: env.tools(newFakeCipher(""))})
	assert.ErrorIs(t, err, kerrors.ErrNoRecipients)

	_, err = InitManifest(context.Background(), InitOptions{Dir: t.TempDir(), FileName: "x.json", KeyIndexes: []int{5}, Tools: env.tools(newFakeCipher(""))})
	assert.ErrorIs(t, err, kerrors.ErrKeyNotFound)
}
