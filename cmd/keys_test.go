package cmd

import (
	"errors"
	"os"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// TestKeys contains tests for the `sopsmith keys` commands.
func TestKeys(t *testing.T) {
	t.Run("ListShowsPublicKeys", func(t *testing.T) {
		env := setupTestEnvironment(t)

		output, err := runCLI(t, "keys", "list")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, env.keyFile, "test key", env.publicKey)
		if strings.Contains(output, "AGE-SECRET-KEY-") {
			t.Errorf("List printed a private key:\n%s", output)
		}
	})

	t.Run("ListFiltersByQuery", func(t *testing.T) {
		setupTestEnvironment(t)

		output, err := runCLI(t, "keys", "list", "laptop")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "No keys match")
	})

	t.Run("GenerateAppendsKey", func(t *testing.T) {
		env := setupTestEnvironment(t)

		output, err := runCLI(t, "keys", "generate", "--comment", "laptop")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Generated key #2")

		data, err := os.ReadFile(env.keyFile)
		if err != nil {
			t.Fatalf("Failed to read key file: %v", err)
		}
		marker := "# public key: "
		generated := string(data)[strings.LastIndex(string(data), marker)+len(marker):]
		generated = generated[:strings.Index(generated, "\n")]
		assertContains(t, output, "Public key: "+generated+"\n")
		if strings.Contains(output, "'"+generated) {
			t.Errorf("Public key should be printed without quotes:\n%s", output)
		}
		if n := strings.Count(string(data), "AGE-SECRET-KEY-"); n != 2 {
			t.Errorf("Expected 2 keys in the key file, got %d", n)
		}
		assertContains(t, string(data), "# laptop")
	})

	t.Run("GenerateWithExplicitKeyFile", func(t *testing.T) {
		setupTestEnvironment(t)

		output, err := runCLI(t, "keys", "generate", "--key-file", "team.txt")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Generated key #1", "team.txt")
		if _, err := os.Stat("team.txt"); err != nil {
			t.Errorf("Expected team.txt to be created: %v", err)
		}
	})

	t.Run("DeleteRemovesKey", func(t *testing.T) {
		env := setupTestEnvironment(t)
		if _, err := runCLI(t, "keys", "generate", "--comment", "old"); err != nil {
			t.Fatalf("Failed to generate key: %v", err)
		}
		ResetGlobalState()

		output, err := runCLI(t, "keys", "delete", "2", "--yes")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Deleted key #2", "old")

		data, _ := os.ReadFile(env.keyFile)
		if n := strings.Count(string(data), "AGE-SECRET-KEY-"); n != 1 {
			t.Errorf("Expected 1 key left, got %d", n)
		}
		assertContains(t, string(data), "# test key")
	})

	t.Run("DeleteOutOfRange", func(t *testing.T) {
		setupTestEnvironment(t)

		_, err := runCLI(t, "keys", "delete", "7", "--yes")
		if !errors.Is(err, kerrors.ErrKeyNotFound) {
			t.Fatalf("Expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("MatchMarksUsableKey", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "keys", "match", "secrets.json")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "Recipients of", env.publicKey, "Your keys that can open it:", "*1", "test key")
	})

	t.Run("MatchWithoutUsableKey", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.recipient = "age1someoneelse"
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "keys", "match", "secrets.json")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "age1someoneelse", "None of your keys")
	})
}
