package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", ".sops.yaml"), []byte("creation_rules: []\n"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}

	t.Run("FindsNearestAncestor", func(t *testing.T) {
		got, err := FindUpward(nested, ".sops.yaml")
		if err != nil {
			t.Fatalf("FindUpward failed: %v", err)
		}
		if got != filepath.Join(root, "a") {
			t.Errorf("Expected %q, got %q", filepath.Join(root, "a"), got)
		}
	})

	t.Run("IgnoresDirectoriesWithTheSameName", func(t *testing.T) {
		if err := os.Mkdir(filepath.Join(nested, "marker"), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		got, err := FindUpward(nested, "marker")
		if err != nil {
			t.Fatalf("FindUpward failed: %v", err)
		}
		if got != "" {
			t.Errorf("Expected no match, got %q", got)
		}
	})
}

func TestRelativeTo(t *testing.T) {
	base := filepath.FromSlash("/srv/app")
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Child", filepath.FromSlash("/srv/app/config/secrets.json"), "config/secrets.json"},
		{"Same", filepath.FromSlash("/srv/app"), "."},
		{"Outside", filepath.FromSlash("/etc/secrets.json"), filepath.ToSlash(filepath.Clean(filepath.FromSlash("/etc/secrets.json")))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativeTo(base, tc.path); got != tc.expected {
				t.Errorf("RelativeTo(%q, %q) = %q, expected %q", base, tc.path, got, tc.expected)
			}
		})
	}
}
