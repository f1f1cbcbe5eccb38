package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindUpward walks up from dir looking for a regular file called name.
// Returns the directory containing it, or an empty string if the
// filesystem root is reached without finding one.
func FindUpward(dir, name string) (string, error) {
	currentDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		fileInfo, err := os.Stat(filepath.Join(currentDir, name))
		// No error means the path exists
		if err == nil {
			if !fileInfo.IsDir() {
				return currentDir, nil
			}
		} else if !os.IsNotExist(err) {
			// Return any error that's not "file not found" (like permission issues)
			return "", fmt.Errorf("error checking for %s at %s: %w", name, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)

		// If we've reached the filesystem root without a match
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// RelativeTo returns path relative to base using forward slashes, or the
// cleaned path if it is not below base.
func RelativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	return filepath.ToSlash(rel)
}
