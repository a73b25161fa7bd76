package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CanonicalPath returns the absolute, cleaned form of p with symlinks
// resolved as far as the path exists. The path itself need not exist.
func CanonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Resolve the nearest existing ancestor and re-attach the rest
	var rest []string
	dir := abs
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
	}
}

// ResolveAgainst joins p onto root unless p is already absolute, then
// canonicalizes the result.
func ResolveAgainst(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return CanonicalPath(p)
}

// CleanName validates a single path element such as an analysis name.
func CleanName(name string) (string, error) {
	n := strings.TrimSpace(name)
	switch {
	case n == "":
		return "", errors.New("name must not be empty")
	case n == "." || n == "..":
		return "", fmt.Errorf("invalid name %q", name)
	case strings.ContainsAny(n, `/\`):
		return "", fmt.Errorf("name %q must not contain path separators", name)
	}
	return n, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.New("failed to resolve base directory")
	}
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(baseDirAbs, filePath)
	}
	filePathAbs := filepath.Clean(filePath)

	rel, err := filepath.Rel(baseDirAbs, filePathAbs)
	if err != nil {
		return nil, errors.New("failed to compute relative path")
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return nil, fmt.Errorf("file path %s is outside %s", filePath, baseDir)
	}

	// #nosec G304 -- filePathAbs has been verified to be contained within baseDirAbs
	return os.ReadFile(filePathAbs)
}
