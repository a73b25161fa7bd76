package reconcile

import (
	"crypto/md5" // #nosec G501 -- checksum of declared data, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fulmenhq/goproj/pkg/inputs"
)

// Mismatch is one declared size or md5 that the file on disk does not match.
type Mismatch struct {
	ID    string
	Path  string
	Field string
	Want  string
	Got   string
}

// IntegrityError lists every metadata mismatch found by Verify.
type IntegrityError struct {
	Mismatches []Mismatch
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "integrity check failed with %s against declared metadata:", plural(len(e.Mismatches), "mismatch", "mismatches"))
	for _, m := range e.Mismatches {
		fmt.Fprintf(&b, "\n  - %s (%s): %s declared %s, found %s", m.ID, m.Path, m.Field, m.Want, m.Got)
	}
	b.WriteString("\nupdate the declaration file if the data changed on purpose")
	return b.String()
}

// IsIntegrityError reports whether err is (or wraps) an IntegrityError.
func IsIntegrityError(err error) bool {
	var integrityErr *IntegrityError
	return errors.As(err, &integrityErr)
}

// Verify compares declared size and md5 metadata with the resolved files.
// Inputs without metadata are skipped.
func Verify(resolved []ResolvedInput, decls []inputs.Declaration) error {
	byID := make(map[string]inputs.Declaration, len(decls))
	for _, d := range decls {
		byID[d.ID] = d
	}

	var mismatches []Mismatch
	for _, r := range resolved {
		decl, ok := byID[r.ID]
		if !ok {
			continue
		}

		if want, ok := decl.Size(); ok {
			info, err := os.Stat(r.Path)
			if err != nil {
				return fmt.Errorf("input %q: %w", r.ID, err)
			}
			if info.Size() != want {
				mismatches = append(mismatches, Mismatch{
					ID: r.ID, Path: r.Path, Field: inputs.KeySize,
					Want: fmt.Sprint(want), Got: fmt.Sprint(info.Size()),
				})
			}
		}

		if want, ok := decl.MD5(); ok {
			got, err := fileMD5(r.Path)
			if err != nil {
				return fmt.Errorf("input %q: %w", r.ID, err)
			}
			if !strings.EqualFold(strings.TrimSpace(want), got) {
				mismatches = append(mismatches, Mismatch{
					ID: r.ID, Path: r.Path, Field: inputs.KeyMD5,
					Want: want, Got: got,
				})
			}
		}
	}

	if len(mismatches) > 0 {
		return &IntegrityError{Mismatches: mismatches}
	}
	return nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path resolved from the local mapping file
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New() // #nosec G401
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
