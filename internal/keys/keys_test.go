package keys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// fakeDeriver maps secrets to public keys and counts calls per secret.
type fakeDeriver struct {
	pub   map[string]string
	calls map[string]int
}

func newFakeDeriver(pub map[string]string) *fakeDeriver {
	return &fakeDeriver{pub: pub, calls: make(map[string]int)}
}

func (f *fakeDeriver) Derive(_ context.Context, secret string) (string, error) {
	f.calls[secret]++
	p, ok := f.pub[secret]
	if !ok {
		return "", errors.New("cannot derive")
	}
	return p, nil
}

func TestAutoDetect(t *testing.T) {
	ctx := context.Background()
	d := newFakeDeriver(map[string]string{"KC": "pubC", "KB": "pubB"})
	records := []*Record{{Secret: "KC"}, {Secret: "KB"}}

	idx, ok := AutoDetect(ctx, []string{"pubB", "pubA"}, records, d)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = AutoDetect(ctx, nil, records, d)
	assert.False(t, ok)

	_, ok = AutoDetect(ctx, []string{"pubZ"}, records, d)
	assert.False(t, ok)
}

func TestAutoDetect_FirstMatchInKeyOrder(t *testing.T) {
	d := newFakeDeriver(map[string]string{"K0": "pub0", "K1": "pub1", "K2": "pub2"})
	records := []*Record{{Secret: "K0"}, {Secret: "K1"}, {Secret: "K2"}}

	idx, ok := AutoDetect(context.Background(), []string{"pub2", "pub1"}, records, d)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestAutoDetect_SkipsUnderivableKeys(t *testing.T) {
	d := newFakeDeriver(map[string]string{"good": "pub"})
	records := []*Record{{Secret: "broken"}, {Secret: "good"}}

	idx, ok := AutoDetect(context.Background(), []string{"pub"}, records, d)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPublicKey_DerivedOnce(t *testing.T) {
	ctx := context.Background()
	d := newFakeDeriver(map[string]string{"K": "pub"})
	records := []*Record{{Secret: "K"}}

	for i := 0; i < 3; i++ {
		AutoDetect(ctx, []string{"pub"}, records, d)
		Filter(ctx, "pu", records, d)
	}
	assert.Equal(t, 1, d.calls["K"])
}

func TestPublicKey_FallsBackToDeclared(t *testing.T) {
	d := newFakeDeriver(nil)
	rec := &Record{Secret: "K", Declared: "age1declared"}

	pub, err := rec.PublicKey(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "age1declared", pub)
}

func TestMatching(t *testing.T) {
	d := newFakeDeriver(map[string]string{"A": "pa", "B": "pb", "C": "pa"})
	records := []*Record{{Secret: "A"}, {Secret: "B"}, {Secret: "C"}}

	assert.Equal(t, []int{0, 2}, Matching(context.Background(), []string{"pa"}, records, d))
}

func TestFilter(t *testing.T) {
	d := newFakeDeriver(map[string]string{"A": "age1alpha", "B": "age1beta"})
	records := []*Record{{Secret: "A", Comment: "Work Laptop"}, {Secret: "B", Comment: "home"}}

	ctx := context.Background()
	assert.Equal(t, []int{0, 1}, Filter(ctx, "", records, d))
	assert.Equal(t, []int{0}, Filter(ctx, "laptop", records, d))
	assert.Equal(t, []int{1}, Filter(ctx, "BETA", records, d))
	assert.Empty(t, Filter(ctx, "nothing", records, d))
}

func TestParse(t *testing.T) {
	content := `# work key
# created: 2024-01-01T00:00:00Z
# public key: age1work
AGE-SECRET-KEY-1WORK

AGE-SECRET-KEY-1BARE

# stale comment
some unrelated line
AGE-SECRET-KEY-1AFTERNOISE
`
	records := Parse(content)
	require.Len(t, records, 3)

	assert.Equal(t, "AGE-SECRET-KEY-1WORK", records[0].Secret)
	assert.Equal(t, "work key", records[0].Comment)
	assert.Equal(t, "age1work", records[0].Declared)

	assert.Equal(t, "", records[1].Comment)
	assert.Equal(t, "#2", records[1].Label("#2"))

	assert.Equal(t, "", records[2].Comment)
}

func TestLoadFile_Missing(t *testing.T) {
	records, err := LoadFile(filepath.Join(t.TempDir(), "keys.txt"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNative_Derive(t *testing.T) {
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	pub, err := Native{}.Derive(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id.Recipient().String(), pub)

	_, err = Native{}.Derive(context.Background(), "AGE-SECRET-KEY-1NOTVALID")
	assert.ErrorIs(t, err, kerrors.ErrInvalidKey)
}

func TestFallback_UsesSecondaryWhenBinaryMissing(t *testing.T) {
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	d := DefaultDeriver(filepath.Join(t.TempDir(), "no-age-keygen"))
	pub, err := d.Derive(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id.Recipient().String(), pub)
}

func TestAgeKeygen_Derive(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on Windows")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, "age-keygen")
	script := "#!/bin/sh\nread key\nif [ \"$1\" = \"-y\" ] && [ \"$key\" = \"AGE-SECRET-KEY-1STUB\" ]; then echo age1stub; else echo bad >&2; exit 1; fi\n"
	require.NoError(t, os.WriteFile(stub, []byte(script), 0755))

	pub, err := AgeKeygen{Binary: stub}.Derive(context.Background(), "AGE-SECRET-KEY-1STUB")
	require.NoError(t, err)
	assert.Equal(t, "age1stub", pub)

	_, err = AgeKeygen{Binary: stub}.Derive(context.Background(), "AGE-SECRET-KEY-1OTHER")
	assert.ErrorIs(t, err, kerrors.ErrProcessFailed)
}

func TestGenerateAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sops", "age", "keys.txt")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := Generate(path, "first", now)
	require.NoError(t, err)
	second, err := Generate(path, "", now)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	records, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Comment)
	assert.Equal(t, first.Secret, records[0].Secret)
	assert.Equal(t, second.Secret, records[1].Secret)

	pub, err := records[1].PublicKey(context.Background(), Native{})
	require.NoError(t, err)
	assert.Equal(t, second.Declared, pub)

	require.NoError(t, Delete(path, first.Secret))
	records, err = LoadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.Secret, records[0].Secret)

	assert.ErrorIs(t, Delete(path, first.Secret), kerrors.ErrKeyNotFound)
}

func TestDelete_KeysWithoutBlankLine(t *testing.T) {
	const content = `# work
# public key: age1work
AGE-SECRET-KEY-1WORK
# laptop
# public key: age1laptop
AGE-SECRET-KEY-1LAPTOP

# spare
AGE-SECRET-KEY-1SPARE
`
	tests := []struct {
		secret string
		want   string
	}{
		{"AGE-SECRET-KEY-1WORK", "# laptop\n# public key: age1laptop\nAGE-SECRET-KEY-1LAPTOP\n\n# spare\nAGE-SECRET-KEY-1SPARE\n"},
		{"AGE-SECRET-KEY-1LAPTOP", "# work\n# public key: age1work\nAGE-SECRET-KEY-1WORK\n\n# spare\nAGE-SECRET-KEY-1SPARE\n"},
		{"AGE-SECRET-KEY-1SPARE", "# work\n# public key: age1work\nAGE-SECRET-KEY-1WORK\n# laptop\n# public key: age1laptop\nAGE-SECRET-KEY-1LAPTOP\n"},
	}
	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "keys.txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			require.NoError(t, Delete(path, tt.secret))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestDelete_OnlyKeyLeavesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, os.WriteFile(path, []byte("# only\nAGE-SECRET-KEY-1ONLY\n"), 0600))

	require.NoError(t, Delete(path, "AGE-SECRET-KEY-1ONLY"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
