package sops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	logger "github.com/PolarWolf314/sopsmith/internal/logging"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
)

// Runner invokes the sops binary.
type Runner struct {
	// Binary is the sops executable name or path.
	Binary string

	// KeyFile is passed as SOPS_AGE_KEY_FILE when no explicit key is given.
	KeyFile string

	Logger logger.Logger
}

// NewRunner returns a Runner for binary, defaulting to "sops".
func NewRunner(binary, keyFile string, log logger.Logger) Runner {
	if binary == "" {
		binary = "sops"
	}
	return Runner{Binary: binary, KeyFile: keyFile, Logger: log}
}

// Decrypt runs sops -d and returns the document as JSON. ageKey, when not
// empty, is used instead of the key file.
func (r Runner) Decrypt(ctx context.Context, path string, ageKey string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Binary, "-d", "--output-type", "json", path)
	cmd.Env = r.env(ageKey)

	r.Logger.Debugf("Running %s -d --output-type json %s", r.Binary, path)
	out, err := r.run(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", kerrors.ErrDecryptFailed, path, err)
	}
	return out, nil
}

// EncryptInPlace runs sops --encrypt -i on a plaintext JSON file, writing
// it back in format. sops runs in the nearest ancestor directory holding a
// .sops.yaml so its creation rules apply; without one it runs in the
// file's own directory.
func (r Runner) EncryptInPlace(ctx context.Context, path string, format transcode.Format, ageKey string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %v", kerrors.ErrIO, path, err)
	}

	workDir, err := FindManifestDir(filepath.Dir(absPath))
	if err != nil {
		return err
	}
	if workDir == "" {
		workDir = filepath.Dir(absPath)
		r.Logger.Debugf("No %s found above %s", ManifestName, absPath)
	}

	args := []string{
		"--encrypt",
		"--input-type", "json",
		"--output-type", format.SopsType(),
		"-i", absPath,
	}
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = workDir
	cmd.Env = r.env(ageKey)

	r.Logger.Debugf("Running %s %s in %s", r.Binary, strings.Join(args, " "), workDir)
	if _, err := r.run(cmd); err != nil {
		return fmt.Errorf("%w: %s: %w", kerrors.ErrEncryptFailed, path, err)
	}
	return nil
}

func (r Runner) env(ageKey string) []string {
	env := os.Environ()
	if ageKey != "" {
		return append(env, "SOPS_AGE_KEY="+ageKey)
	}
	if r.KeyFile != "" {
		return append(env, "SOPS_AGE_KEY_FILE="+r.KeyFile)
	}
	return env
}

func (r Runner) run(cmd *exec.Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrBinaryNotFound, r.Binary)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrProcessFailed, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrProcessFailed, err)
	}
	return stdout.Bytes(), nil
}

// CleanupTempFiles removes temporary files sops may leave next to path
// after an in-place encryption. It returns the removed paths.
func CleanupTempFiles(path string) ([]string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", kerrors.ErrIO, dir, err)
	}

	var removed []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || name == base || !strings.Contains(name, ".tmp") || !strings.Contains(name, base) {
			continue
		}
		leftover := filepath.Join(dir, name)
		if err := os.Remove(leftover); err == nil {
			removed = append(removed, leftover)
		}
	}
	return removed, nil
}
