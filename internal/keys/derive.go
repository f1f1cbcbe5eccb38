package keys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"filippo.io/age"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// Deriver computes the public key of an age private key.
type Deriver interface {
	Derive(ctx context.Context, secret string) (string, error)
}

// AgeKeygen derives public keys with "age-keygen -y", passing the private
// key on standard input.
type AgeKeygen struct {
	Binary string
}

func (a AgeKeygen) Derive(ctx context.Context, secret string) (string, error) {
	binary := a.Binary
	if binary == "" {
		binary = "age-keygen"
	}

	cmd := exec.CommandContext(ctx, binary, "-y")
	cmd.Stdin = strings.NewReader(secret + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrBinaryNotFound, binary)
		}
		return "", fmt.Errorf("%w: converting private key to public: %s",
			kerrors.ErrProcessFailed, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Native derives public keys in-process with filippo.io/age.
type Native struct{}

func (Native) Derive(_ context.Context, secret string) (string, error) {
	id, err := age.ParseX25519Identity(strings.TrimSpace(secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrInvalidKey, err)
	}
	return id.Recipient().String(), nil
}

// Fallback uses Primary and switches to Secondary only when the Primary
// binary is not installed.
type Fallback struct {
	Primary   Deriver
	Secondary Deriver
}

func (f Fallback) Derive(ctx context.Context, secret string) (string, error) {
	pub, err := f.Primary.Derive(ctx, secret)
	if errors.Is(err, kerrors.ErrBinaryNotFound) && f.Secondary != nil {
		return f.Secondary.Derive(ctx, secret)
	}
	return pub, err
}

// DefaultDeriver prefers the age-keygen binary and falls back to native
// derivation when it is missing.
func DefaultDeriver(binary string) Deriver {
	return Fallback{Primary: AgeKeygen{Binary: binary}, Secondary: Native{}}
}
