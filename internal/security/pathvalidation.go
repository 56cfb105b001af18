// Package security validates the file names and paths the scan writes to.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that filePath stays inside safeDir once
// cleaned and made absolute. Symlinks in existing parents are resolved so a
// link cannot redirect a write outside the directory.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	relPath, err := filepath.Rel(canonical(absSafeDir), canonical(absPath))
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}
	return nil
}

// canonical resolves symlinks in the longest existing prefix of an
// absolute path and re-appends the part that does not exist yet.
func canonical(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	for dir := filepath.Dir(absPath); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rel, _ := filepath.Rel(dir, absPath)
			return filepath.Join(resolved, rel)
		}
		if filepath.Dir(dir) == dir {
			return absPath
		}
	}
}

// ValidateFilenameComponent checks that s can be embedded in a file name:
// only ASCII letters, digits, dot, underscore and dash, at most 128 bytes,
// and not a bare "." or "..". An empty string is allowed.
func ValidateFilenameComponent(s string) error {
	const maxLen = 128
	if len(s) > maxLen {
		return fmt.Errorf("name %q is longer than %d characters", s, maxLen)
	}
	if s == "." || s == ".." {
		return fmt.Errorf("name %q is not allowed", s)
	}
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
		case r == '.' || r == '_' || r == '-':
		default:
			return fmt.Errorf("name %q contains %q; use letters, digits, '.', '_' or '-'", s, r)
		}
	}
	return nil
}
