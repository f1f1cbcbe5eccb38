// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and standing in for the sops binary.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/configs"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/keys"
	logger "github.com/PolarWolf314/sopsmith/internal/logging"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

// fakeSops stands in for the sops binary. Encryption remembers the
// plaintext and replaces the file with a sealed document listing
// recipient; decryption hands the remembered plaintext back.
type fakeSops struct {
	recipient  string
	plaintext  map[string][]byte
	encryptErr error
}

func (f *fakeSops) key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (f *fakeSops) Decrypt(_ context.Context, path string, _ string) ([]byte, error) {
	data, ok := f.plaintext[f.key(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w: no key could decrypt the data key", kerrors.ErrDecryptFailed, path, kerrors.ErrProcessFailed)
	}
	return data, nil
}

func (f *fakeSops) EncryptInPlace(_ context.Context, path string, format transcode.Format, _ string) error {
	if f.encryptErr != nil {
		return fmt.Errorf("%w: %s: %w", kerrors.ErrEncryptFailed, path, f.encryptErr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	f.plaintext[f.key(path)] = data
	return os.WriteFile(path, []byte(sealedDocument(format, f.recipient)), 0600)
}

// seal writes an encrypted-looking file at path whose plaintext is JSON.
func (f *fakeSops) seal(t *testing.T, path, plaintext string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(sealedDocument(transcode.DetectFormat(path), f.recipient)), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	f.plaintext[f.key(path)] = []byte(plaintext)
}

// plaintextOf returns the JSON last encrypted at path.
func (f *fakeSops) plaintextOf(t *testing.T, path string) string {
	t.Helper()
	data, ok := f.plaintext[f.key(path)]
	if !ok {
		t.Fatalf("%s was never encrypted", path)
	}
	return string(data)
}

func sealedDocument(format transcode.Format, recipient string) string {
	switch format {
	case transcode.Dotenv:
		return "token=ENC[AES256_GCM,data:x]\nsops_age__list_0__map_recipient=" + recipient + "\n"
	case transcode.INI:
		return "[DEFAULT]\ntoken = ENC[AES256_GCM,data:x]\n\n[sops]\nage__list_0__map_recipient = " + recipient + "\n"
	case transcode.YAML:
		return "token: ENC[AES256_GCM,data:x]\nsops:\n    age:\n        - recipient: " + recipient + "\n"
	default:
		return `{"token":"ENC[AES256_GCM,data:x]","sops":{"age":[{"recipient":"` + recipient + `"}]}}`
	}
}

// testEnv is a working directory, a key file and a fake sops.
type testEnv struct {
	dir       string
	keyFile   string
	publicKey string
	sops      *fakeSops
}

// setupTestEnvironment moves into a temporary directory, points the user
// settings at it, generates one age key and installs a fake sops.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	originalSettings := configs.UserSettings
	originalTools := newTools
	originalInput := editInput
	originalClock := editClock

	tempDir := t.TempDir()
	tempUserDir := t.TempDir()

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		configs.UserSettings = originalSettings
		newTools = originalTools
		editInput = originalInput
		editClock = originalClock
		ResetGlobalState()
	})

	configs.UserSettings = &configs.Settings{
		ConfigPath:     filepath.Join(tempUserDir, "config", "config.toml"),
		StatePath:      filepath.Join(tempUserDir, "state"),
		DefaultKeyFile: filepath.Join(tempUserDir, "age", "keys.txt"),
		Username:       "testuser",
	}
	t.Setenv("SOPS_AGE_KEY_FILE", "")
	t.Setenv("NO_COLOR", "1")

	rec, err := keys.Generate(configs.UserSettings.DefaultKeyFile, "test key", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	pub, err := rec.PublicKey(context.Background(), keys.Native{})
	if err != nil {
		t.Fatalf("Failed to derive public key: %v", err)
	}

	env := &testEnv{
		dir:       tempDir,
		keyFile:   configs.UserSettings.DefaultKeyFile,
		publicKey: pub,
		sops:      &fakeSops{recipient: pub, plaintext: map[string][]byte{}},
	}

	newTools = func(config *configs.Config, keyFile string) workflows.Tools {
		if keyFile == "" {
			keyFile = config.ResolveKeyFile()
		}
		return workflows.Tools{
			Cipher:  env.sops,
			Deriver: keys.Native{},
			KeyFile: keyFile,
			Logger:  Logger,
		}
	}

	ResetGlobalState()
	return env
}

// writeManifest writes a .sops.yaml for the test key into dir.
func (e *testEnv) writeManifest(t *testing.T, dir string) {
	t.Helper()
	content := "creation_rules:\n  - age: " + e.publicKey + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".sops.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write .sops.yaml: %v", err)
	}
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	first := <-outputChan
	second := <-outputChan

	return first + second, err
}

// createTestCLI creates a complete CLI instance for testing with the given arguments.
func createTestCLI(args ...string) *cobra.Command {
	Logger = logger.Logger{
		Verbose: verbose,
		Debug:   debug,
	}

	rootCmd := &cobra.Command{
		Use:   "sopsmith",
		Short: "sopsmith - view and edit sops-encrypted secret documents.",
	}
	Register(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI runs sopsmith with args and returns everything it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
}

// assertContains fails the test when output lacks any of want.
func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("Expected %q in output:\n%s", w, output)
		}
	}
}
