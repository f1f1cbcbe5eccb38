package cmd

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

// TestStatus contains tests for the `sopsmith status` command.
func TestStatus(t *testing.T) {
	t.Run("EmptyDirectory", func(t *testing.T) {
		setupTestEnvironment(t)

		output, err := runCLI(t, "status")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, "No sops documents found")
	})

	t.Run("ReportsReadyAndUnencrypted", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)
		if _, err := runCLI(t, "init", "--key-index", "1", "--file", "config.json"); err != nil {
			t.Fatalf("init failed: %v", err)
		}
		ResetGlobalState()
		if err := os.WriteFile("config.json", []byte(`{"password":"plain"}`), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		output, err := runCLI(t, "status")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output,
			"secrets.json", "ready", "#1 test key",
			"config.json", "unencrypted",
			"1 file(s) ready", "1 file(s) not encrypted")
	})

	t.Run("JSONOutput", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.sops.seal(t, "secrets.json", testDocument)

		output, err := runCLI(t, "status", "--json")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}

		var result struct {
			Files   []workflows.FileStatusInfo `json:"files"`
			Summary workflows.StatusSummary    `json:"summary"`
		}
		if err := json.Unmarshal([]byte(output), &result); err != nil {
			t.Fatalf("Output is not JSON: %v\n%s", err, output)
		}
		if len(result.Files) != 1 || result.Files[0].Path != "secrets.json" {
			t.Fatalf("Unexpected files: %+v", result.Files)
		}
		if result.Files[0].Status != workflows.StatusReady {
			t.Errorf("Expected ready, got %s", result.Files[0].Status)
		}
		if result.Summary.Ready != 1 {
			t.Errorf("Expected 1 ready file, got %d", result.Summary.Ready)
		}
	})

	t.Run("EmptyJSONHasFileList", func(t *testing.T) {
		setupTestEnvironment(t)

		output, err := runCLI(t, "status", "--json")
		if err != nil {
			t.Fatalf("Command failed: %v\nOutput: %s", err, output)
		}
		assertContains(t, output, `"files": []`)
	})
}
