// Package security guards the filesystem paths that reach the dataset tree
// from user input: inspect server query parameters and output file names.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its root.
var ErrPathEscape = errors.New("path escapes root")

// canonical returns the absolute, symlink-resolved form of path. A path that
// does not exist yet is resolved through its deepest existing ancestor so a
// symlinked parent cannot smuggle a new file outside the root.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if dir == filepath.Dir(dir) {
			return abs, nil
		}
	}
}

// ValidatePathWithinDirectory returns an error unless filePath, after
// cleaning and symlink resolution, lies inside root (or is root itself).
func ValidatePathWithinDirectory(filePath, root string) error {
	path, err := canonical(filePath)
	if err != nil {
		return err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", root, err)
	}
	canonRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", root, err)
	}

	rel, err := filepath.Rel(canonRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%s: %w %s", filePath, ErrPathEscape, root)
	}
	return nil
}

// ResolveWithin joins a client-supplied relative path onto root and
// validates the result. Absolute inputs are rejected outright.
func ResolveWithin(root, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%s: %w %s", rel, ErrPathEscape, root)
	}
	full := filepath.Join(root, rel)
	if err := ValidatePathWithinDirectory(full, root); err != nil {
		return "", err
	}
	return full, nil
}

const maxFilenameLen = 128

// SanitizeFilename maps an identifier onto [A-Za-z0-9._-], collapsing runs
// of other characters into one underscore. Empty results become "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		ok := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
