package sops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipients_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.json", `{
		"a": "ENC[x]",
		"sops": {"age": [
			{"recipient": "age1aaa", "enc": "..."},
			{"recipient": "age1bbb", "enc": "..."},
			{"recipient": "age1aaa", "enc": "..."}
		]}
	}`)

	got, err := Recipients(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"age1aaa", "age1bbb"}, got)
}

func TestRecipients_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.yaml", `a: ENC[x]
sops:
  age:
    - recipient: age1yaml
      enc: |
        -----BEGIN AGE ENCRYPTED FILE-----
        -----END AGE ENCRYPTED FILE-----
`)

	got, err := Recipients(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"age1yaml"}, got)
}

func TestRecipients_Dotenv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.env", `A=ENC[x]
sops_age__list_0__map_enc=-----BEGIN AGE ENCRYPTED FILE-----\n...
sops_age__list_0__map_recipient=age1env0
sops_age__list_1__map_recipient=age1env1
`)

	got, err := Recipients(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"age1env0", "age1env1"}, got)
}

func TestRecipients_INI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.ini", `[DEFAULT]
age__list_0__map_recipient = not-metadata

[sops]
age__list_0__map_recipient = age1ini
`)

	got, err := Recipients(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"age1ini"}, got)
}

func TestRecipients_NoMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.json", `{"a":"b"}`)

	got, err := Recipients(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
