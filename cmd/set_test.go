package cmd

import (
	"errors"
	"os"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// TestSet contains tests for the `sopsmith set` and `sopsmith unset` commands.
func TestSet(t *testing.T) {
	t.Run("AddsNewPath", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "set", "secrets.json", "db.host", "localhost")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Added db.host")
		assertContains(t, env.sops.plaintextOf(t, "secrets.json"), `"host": "localhost"`)
	})

	t.Run("UpdatesWithInferredType", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "set", "secrets.json", "port", "5433")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Updated port")
		assertContains(t, env.sops.plaintextOf(t, "secrets.json"), `"port": 5433`)
	})

	t.Run("UnchangedValueIsNotSaved", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "set", "secrets.json", "db.user", "admin")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "nothing to save")
		if got := env.sops.plaintextOf(t, "secrets.json"); got != testDocument {
			t.Errorf("Document should not have been re-encrypted, got %s", got)
		}
	})

	t.Run("ReadsValueFromStdin", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		reader, writer, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		originalStdin := os.Stdin
		os.Stdin = reader
		t.Cleanup(func() { os.Stdin = originalStdin })
		if _, err := writer.WriteString("s3cret value\n"); err != nil {
			t.Fatalf("Failed to write to pipe: %v", err)
		}
		writer.Close()

		output, err := runCLI(t, "set", "secrets.json", "api.token", "--stdin")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, env.sops.plaintextOf(t, "secrets.json"), `"token": "s3cret value"`)
	})

	t.Run("EncryptFailureRestoresFile", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)
		before, err := os.ReadFile("secrets.json")
		if err != nil {
			t.Fatalf("Failed to read document: %v", err)
		}
		env.sops.encryptErr = errors.New("no matching creation rules found")

		output, err := runCLI(t, "set", "secrets.json", "db.host", "localhost")
		if !errors.Is(err, kerrors.ErrEncryptFailed) {
			t.Fatalf("Expected ErrEncryptFailed, got %v", err)
		}
		assertContains(t, output, "Failed to encrypt")

		after, err := os.ReadFile("secrets.json")
		if err != nil {
			t.Fatalf("Failed to read document: %v", err)
		}
		if string(after) != string(before) {
			t.Errorf("Document was not restored:\n%s", after)
		}
		if _, err := os.Stat("secrets.bak"); !os.IsNotExist(err) {
			t.Errorf("Backup should have been removed")
		}
	})

	t.Run("StructureConflict", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		_, err := runCLI(t, "set", "secrets.json", "port.number", "1")
		if !errors.Is(err, kerrors.ErrStructureConflict) {
			t.Fatalf("Expected ErrStructureConflict, got %v", err)
		}
		if _, err := os.Stat("secrets.bak"); !os.IsNotExist(err) {
			t.Errorf("No backup should be created when the tree cannot be built")
		}
	})

	t.Run("DotenvKeepsDottedKeysFlat", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "app.env", `{"token":"abc"}`)

		if output, err := runCLI(t, "set", "app.env", "db.url", "postgres://x"); err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, env.sops.plaintextOf(t, "app.env"), `"db.url": "postgres://x"`)
	})
}

func TestUnset(t *testing.T) {
	t.Run("RemovesPaths", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "unset", "secrets.json", "db.password", "port")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Removed 2 entries")

		plaintext := env.sops.plaintextOf(t, "secrets.json")
		if strings.Contains(plaintext, "hunter2") || strings.Contains(plaintext, "port") {
			t.Errorf("Removed paths are still present:\n%s", plaintext)
		}
		assertContains(t, plaintext, `"user": "admin"`)
	})

	t.Run("MissingPath", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		_, err := runCLI(t, "unset", "secrets.json", "nope")
		if !errors.Is(err, kerrors.ErrEntryNotFound) {
			t.Fatalf("Expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("IgnoreMissing", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "unset", "secrets.json", "nope", "--ignore-missing")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Nothing to remove")
	})
}
