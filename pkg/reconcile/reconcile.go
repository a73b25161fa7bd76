// Package reconcile checks declared input ids against the local mapping of
// id to path and resolves every mapped path to an absolute file location.
//
// Problems are collected across all ids and reported together; a failure
// never stops at the first missing entry or file.
package reconcile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/fulmenhq/goproj/pkg/safeio"
)

// DefaultLocalFile names the mapping file in diagnostics when Options does not.
const DefaultLocalFile = "inputs.local.yaml"

// ResolvedInput is a declared input paired with its absolute path.
type ResolvedInput struct {
	ID   string
	Path string
}

// UnresolvedPath is a mapped input whose file does not exist.
type UnresolvedPath struct {
	ID       string
	Path     string // as written in the mapping file
	Resolved string // absolute, canonical form
}

// Options tunes diagnostics.
type Options struct {
	// LocalFile is the mapping file name shown in remediation text.
	LocalFile string
}

// Reconcile resolves ids against local relative to root.
func Reconcile(ids []string, local map[string]string, root string) ([]ResolvedInput, error) {
	return ReconcileWithOptions(ids, local, root, Options{})
}

// ReconcileWithOptions is Reconcile with explicit diagnostic options.
func ReconcileWithOptions(ids []string, local map[string]string, root string, opts Options) ([]ResolvedInput, error) {
	canonicalRoot, err := safeio.CanonicalPath(root)
	if err != nil {
		return nil, err
	}

	c := newCollector(canonicalRoot, opts.LocalFile, len(ids))
	resolved := make([]ResolvedInput, 0, len(ids))

	for _, id := range ids {
		raw, ok := local[id]
		if !ok {
			c.missingEntry(id)
			continue
		}

		abs, err := safeio.ResolveAgainst(canonicalRoot, raw)
		if err != nil {
			c.missingFile(id, raw, joinRoot(canonicalRoot, raw))
			continue
		}

		if _, err := os.Stat(abs); err != nil {
			if !namesNoFile(err) {
				return nil, fmt.Errorf("input %q: %w", id, err)
			}
			c.missingFile(id, raw, abs)
			continue
		}
		resolved = append(resolved, ResolvedInput{ID: id, Path: abs})
	}

	if err := c.err(); err != nil {
		logger.Warn("input reconciliation failed",
			logger.Int("missing_entries", len(err.Missing)),
			logger.Int("missing_files", len(err.Unresolved)))
		return nil, err
	}

	logger.Debug("inputs reconciled", logger.Int("count", len(resolved)))
	return resolved, nil
}

// namesNoFile reports whether a stat error means the path cannot name an
// existing file, as opposed to the file being unreadable.
func namesNoFile(err error) bool {
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.ELOOP) ||
		errors.Is(err, syscall.ENAMETOOLONG)
}

func joinRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// collector accumulates every violation before one error is built.
type collector struct {
	root       string
	localFile  string
	declared   int
	missing    []string
	unresolved []UnresolvedPath
}

func newCollector(root, localFile string, declared int) *collector {
	if localFile == "" {
		localFile = DefaultLocalFile
	}
	return &collector{root: root, localFile: localFile, declared: declared}
}

func (c *collector) missingEntry(id string) {
	c.missing = append(c.missing, id)
}

func (c *collector) missingFile(id, raw, resolved string) {
	c.unresolved = append(c.unresolved, UnresolvedPath{ID: id, Path: raw, Resolved: resolved})
}

func (c *collector) err() *ReconciliationError {
	if len(c.missing) == 0 && len(c.unresolved) == 0 {
		return nil
	}
	return &ReconciliationError{
		Missing:    c.missing,
		Unresolved: c.unresolved,
		LocalFile:  c.localFile,
		Root:       c.root,
		Declared:   c.declared,
	}
}
