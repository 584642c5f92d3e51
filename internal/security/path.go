package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateConfigPath rejects config file paths that attempt directory
// traversal. Absolute paths are allowed (containers mount the config file in
// at an absolute location); relative paths must stay below the working
// directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(cleanPath) {
		return nil
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes working directory: %s", path)
	}
	return nil
}
