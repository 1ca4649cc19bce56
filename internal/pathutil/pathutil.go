// Package pathutil provides shared path validation helpers.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath validates a file path for path traversal and invalid
// characters. Traversal is detected per segment, before any cleaning:
// "jobs/../etc/passwd" cleans to "etc/passwd" and would slip past a
// prefix-only check. Returns an error if the path is empty, contains a
// null byte, or has ".." in any segment.
func ValidateFilePath(filePath string) error {
	switch {
	case filePath == "":
		return fmt.Errorf("file path cannot be empty")
	case strings.ContainsRune(filePath, 0):
		return fmt.Errorf("file path contains invalid characters")
	}

	for _, segment := range strings.Split(filepath.ToSlash(filePath), "/") {
		if segment == ".." {
			return fmt.Errorf("file path contains path traversal: %q", filePath)
		}
	}
	return nil
}

// ValidateOutputFilename validates an output container file name. On top
// of ValidateFilePath it rejects names that resolve to a directory-like
// path ending in a separator.
func ValidateOutputFilename(name string) error {
	if err := ValidateFilePath(name); err != nil {
		return err
	}
	if strings.HasSuffix(filepath.ToSlash(name), "/") {
		return fmt.Errorf("output file name %q is a directory path", name)
	}
	return nil
}
