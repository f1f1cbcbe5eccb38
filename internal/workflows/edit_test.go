package workflows

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

func TestEdit_SetAndUnset(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"database":{"host":"localhost","port":5432},"old":"x"}`)

	result, err := Edit(context.Background(), EditOptions{
		Open: OpenOptions{Path: path, Tools: env.tools(cipher)},
		Set: []transcode.Entry{
			{Path: "database.port", Value: "6543"},
			{Path: "database.host", Value: "localhost"},
			{Path: "api.token", Value: `"123"`},
		},
		Unset: []string{"old"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Removed)
	require.NotNil(t, result.Save)
	assert.Equal(t, 3, result.Save.Entries)
	assert.Equal(t, 1, cipher.encryptCalls)
	assert.JSONEq(t, `{"database":{"host":"localhost","port":6543},"api":{"token":"123"}}`, string(cipher.plaintext[path]))
	assert.NoFileExists(t, store.BackupPath(path))

	entries, err := audit.ReadEntries()
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, "edit", last.Operation)
	assert.Equal(t, path, last.File)
	assert.Equal(t, []string{"database.port", "api.token", "old"}, last.Paths)
}

func TestEdit_NoChangesSkipsSave(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"a":"1"}`)

	result, err := Edit(context.Background(), EditOptions{
		Open:          OpenOptions{Path: path, Tools: env.tools(cipher)},
		Set:           []transcode.Entry{{Path: "a", Value: "1"}},
		Unset:         []string{"missing"},
		IgnoreMissing: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Save)
	assert.Zero(t, cipher.encryptCalls)
}

func TestEdit_Errors(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"a":"1"}`)
	open := OpenOptions{Path: path, Tools: env.tools(cipher)}

	_, err := Edit(context.Background(), EditOptions{Open: open, Unset: []string{"missing"}})
	assert.ErrorIs(t, err, kerrors.ErrEntryNotFound)

	_, err = Edit(context.Background(), EditOptions{Open: open, Set: []transcode.Entry{{Path: "", Value: "x"}}})
	assert.ErrorIs(t, err, kerrors.ErrInvalidPath)

	_, err = Edit(context.Background(), EditOptions{Open: open, Set: []transcode.Entry{{Path: "a.b", Value: "x"}}})
	assert.ErrorIs(t, err, kerrors.ErrStructureConflict)
	assert.Zero(t, cipher.encryptCalls)
}

func TestEdit_EncryptFailureKeepsOriginal(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.yaml")
	cipher.seal(t, path, `{"a":"1"}`)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	cipher.encryptErr = errors.New("no matching creation rules found")
	_, err = Edit(context.Background(), EditOptions{
		Open: OpenOptions{Path: path, Tools: env.tools(cipher)},
		Set:  []transcode.Entry{{Path: "a", Value: "2"}},
	})
	assert.ErrorIs(t, err, kerrors.ErrEncryptFailed)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoFileExists(t, store.BackupPath(path))
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"API_KEY":"abc","GREETING":"hello world","nested":{"n":1}}`)
	open := OpenOptions{Path: path, Tools: env.tools(cipher)}

	t.Run("DotenvToWriter", func(t *testing.T) {
		var out bytes.Buffer
		result, err := Export(context.Background(), ExportOptions{Open: open, Format: "dotenv", Output: &out})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Entries)
		assert.Equal(t, "API_KEY=abc\nGREETING=\"hello world\"\nnested.n=1\n", out.String())
	})

	t.Run("YAMLToFile", func(t *testing.T) {
		target := filepath.Join(env.dir, "plain.yaml")
		_, err := Export(context.Background(), ExportOptions{Open: open, Format: "yaml", OutputPath: target})
		require.NoError(t, err)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "API_KEY: abc\nGREETING: hello world\nnested:\n    n: 1\n", string(data))

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		_, err = Export(context.Background(), ExportOptions{Open: open, OutputPath: target})
		assert.ErrorIs(t, err, kerrors.ErrFileExists)

		_, err = Export(context.Background(), ExportOptions{Open: open, OutputPath: target, Force: true})
		assert.NoError(t, err)
	})
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, "work")

	setup := func(t *testing.T) (*fakeCipher, string) {
		cipher := newFakeCipher(env.publicKey(t, 0))
		path := filepath.Join(t.TempDir(), ".env")
		cipher.seal(t, path, `{"KEEP":"1","CHANGE":"old","DROP":"x"}`)
		return cipher, path
	}
	source := filepath.Join(env.dir, "plain.env")
	require.NoError(t, os.WriteFile(source, []byte("CHANGE=new\nKEEP=1\nADDED=\"a b\"\n"), 0600))

	t.Run("Merge", func(t *testing.T) {
		cipher, path := setup(t)
		result, err := Import(context.Background(), ImportOptions{
			Open:   OpenOptions{Path: path, Tools: env.tools(cipher)},
			Source: source,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"ADDED"}, result.Added)
		assert.Equal(t, []string{"CHANGE"}, result.Updated)
		assert.Empty(t, result.Removed)
		assert.JSONEq(t, `{"KEEP":1,"CHANGE":"new","DROP":"x","ADDED":"a b"}`, string(cipher.plaintext[path]))
	})

	t.Run("Replace", func(t *testing.T) {
		cipher, path := setup(t)
		result, err := Import(context.Background(), ImportOptions{
			Open:    OpenOptions{Path: path, Tools: env.tools(cipher)},
			Source:  source,
			Replace: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"DROP"}, result.Removed)
		assert.JSONEq(t, `{"KEEP":1,"CHANGE":"new","ADDED":"a b"}`, string(cipher.plaintext[path]))
	})

	t.Run("DryRun", func(t *testing.T) {
		cipher, path := setup(t)
		result, err := Import(context.Background(), ImportOptions{
			Open:   OpenOptions{Path: path, Tools: env.tools(cipher)},
			Source: source,
			DryRun: true,
		})
		require.NoError(t, err)
		assert.Nil(t, result.Save)
		assert.Zero(t, cipher.encryptCalls)
	})
}

func TestReadPlaintext(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0600))
		return p
	}

	t.Run("ExpandedDotenv", func(t *testing.T) {
		p := write("expand.env", "HOST=db\nURL=postgres://${HOST}/app\nLITERAL='${HOST}'\n")
		entries, err := ReadPlaintext(p, "", true)
		require.NoError(t, err)
		assert.Equal(t, []transcode.Entry{
			{Path: "HOST", Value: "db"},
			{Path: "LITERAL", Value: "${HOST}"},
			{Path: "URL", Value: "postgres://db/app"},
		}, entries)
	})

	t.Run("YAML", func(t *testing.T) {
		p := write("plain.yaml", "db:\n  port: 5432\n")
		entries, err := ReadPlaintext(p, "", false)
		require.NoError(t, err)
		assert.Equal(t, []transcode.Entry{{Path: "db.port", Value: "5432"}}, entries)
	})

	t.Run("INIWithOverride", func(t *testing.T) {
		p := write("settings.conf", "[server]\nhost = h\n")
		entries, err := ReadPlaintext(p, "ini", false)
		require.NoError(t, err)
		assert.Equal(t, []transcode.Entry{{Path: "server.host", Value: "h"}}, entries)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := ReadPlaintext(filepath.Join(dir, "nope.env"), "", false)
		assert.ErrorIs(t, err, kerrors.ErrFileNotFound)
	})
}
