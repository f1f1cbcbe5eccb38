package workflows

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

func TestOpen_AutoDetectsKey(t *testing.T) {
	env := newTestEnv(t, "work", "laptop")
	cipher := newFakeCipher(env.publicKey(t, 1))
	cipher.acceptKeys = map[string]bool{env.keys[1].Secret: true}
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"database":{"host":"localhost","port":5432},"debug":true}`)

	result, err := Open(context.Background(), OpenOptions{Path: path, Tools: env.tools(cipher)})
	require.NoError(t, err)

	assert.True(t, result.AutoDetected)
	assert.Equal(t, "#2 laptop", result.KeyLabel)
	assert.Equal(t, []string{env.keys[1].Secret}, cipher.decryptKeys)
	assert.Equal(t, []transcode.Entry{
		{Path: "database.host", Value: "localhost"},
		{Path: "database.port", Value: "5432"},
		{Path: "debug", Value: "true"},
	}, result.Document.Entries)
	assert.True(t, result.Document.Encrypted.Has("data"))
	assert.Equal(t, []string{env.publicKey(t, 1)}, result.Document.Recipients)
	assert.Equal(t, env.keys[1].Secret, result.Document.Key)
}

func TestOpen_ChosenKeyFailsWithoutRetry(t *testing.T) {
	env := newTestEnv(t, "work", "laptop")
	cipher := newFakeCipher(env.publicKey(t, 0))
	cipher.acceptKeys = map[string]bool{}
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"a":"1"}`)

	_, err := Open(context.Background(), OpenOptions{Path: path, Tools: env.tools(cipher)})
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrKeyMismatch)
	assert.ErrorIs(t, err, kerrors.ErrDecryptFailed)

	var mismatch *KeyMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"#1 work"}, mismatch.Candidates)
	assert.Len(t, cipher.decryptKeys, 1)
}

func TestOpen_MismatchListsRecipientsWhenNoKeyMatches(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher("age1someoneelse")
	cipher.acceptKeys = map[string]bool{}
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"a":"1"}`)

	_, err := Open(context.Background(), OpenOptions{Path: path, KeyIndex: 1, Tools: env.tools(cipher)})

	var mismatch *KeyMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Empty(t, mismatch.Candidates)
	assert.Equal(t, []string{"age1someoneelse"}, mismatch.Recipients)
	assert.Contains(t, err.Error(), "recipients: age1someoneelse")
}

func TestOpen_FallsBackToKeyFile(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher("age1someoneelse")
	path := filepath.Join(env.dir, ".env")
	cipher.seal(t, path, `{"API_KEY":"abc","db.url":"postgres://x"}`)

	result, err := Open(context.Background(), OpenOptions{Path: path, Tools: env.tools(cipher)})
	require.NoError(t, err)

	assert.Equal(t, []string{""}, cipher.decryptKeys)
	assert.False(t, result.AutoDetected)
	assert.Equal(t, transcode.Dotenv, result.Document.Format)
	assert.Equal(t, []transcode.Entry{
		{Path: "API_KEY", Value: "abc"},
		{Path: "db.url", Value: "postgres://x"},
	}, result.Document.Entries)
}

func TestOpen_INIStripsDefaultSection(t *testing.T) {
	env := newTestEnv(t)
	cipher := newFakeCipher("age1x")
	path := filepath.Join(env.dir, "app.ini")
	cipher.seal(t, path, `{"DEFAULT":{"name":"app"},"server":{"host":"h"}}`)

	result, err := Open(context.Background(), OpenOptions{Path: path, Tools: env.tools(cipher)})
	require.NoError(t, err)
	assert.Equal(t, []transcode.Entry{
		{Path: "name", Value: "app"},
		{Path: "server.host", Value: "h"},
	}, result.Document.Entries)
	assert.True(t, result.Document.Encrypted.Has("data"))
}

func TestOpen_FormatOverrideReadsMetadata(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.txt")
	cipher.sealAs(t, path, transcode.Dotenv, `{"API_KEY":"abc"}`)

	result, err := Open(context.Background(), OpenOptions{Path: path, Format: "env", Tools: env.tools(cipher)})
	require.NoError(t, err)

	assert.Equal(t, transcode.Dotenv, result.Document.Format)
	assert.Equal(t, []string{env.publicKey(t, 0)}, result.Document.Recipients)
	assert.True(t, result.AutoDetected)
	assert.True(t, result.Document.Encrypted.Has("data"))
}

func TestOpen_Errors(t *testing.T) {
	env := newTestEnv(t, "work")
	cipher := newFakeCipher(env.publicKey(t, 0))
	path := filepath.Join(env.dir, "secrets.json")
	cipher.seal(t, path, `{"a":`)

	_, err := Open(context.Background(), OpenOptions{Path: filepath.Join(env.dir, "missing.json"), Tools: env.tools(cipher)})
	assert.ErrorIs(t, err, kerrors.ErrFileNotFound)

	_, err = Open(context.Background(), OpenOptions{Path: path, KeyIndex: 3, Tools: env.tools(cipher)})
	assert.ErrorIs(t, err, kerrors.ErrKeyNotFound)

	_, err = Open(context.Background(), OpenOptions{Path: path, Format: "toml", Tools: env.tools(cipher)})
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedFormat)

	_, err = Open(context.Background(), OpenOptions{Path: path, Tools: env.tools(cipher)})
	assert.ErrorIs(t, err, kerrors.ErrParse)
}

func TestKeyMismatchError_Message(t *testing.T) {
	err := &KeyMismatchError{Path: "s.json", Candidates: []string{"#1 work", "#3 laptop"}}
	assert.Equal(t, "key does not decrypt this document: s.json (matching keys: #1 work, #3 laptop)", err.Error())

	err = &KeyMismatchError{Path: "s.json"}
	assert.Contains(t, err.Error(), "no age recipients")
}
