package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAProject is returned when a root is not a project directory.
	ErrNotAProject = errors.New("not a project directory")
	// ErrNoSuchAnalysis is returned when an analysis directory does not exist.
	ErrNoSuchAnalysis = errors.New("no such analysis")
	// ErrNoCodec is returned when no codec is registered for an extension.
	ErrNoCodec = errors.New("no codec for extension")
)

// LayoutError lists required layout entries missing from a project.
type LayoutError struct {
	Root    string
	Missing []string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("project at %s is missing %s (create %s)",
		e.Root, strings.Join(e.Missing, ", "), plural(len(e.Missing), "it", "them"))
}

// IsLayoutError reports whether err is (or wraps) a LayoutError.
func IsLayoutError(err error) bool {
	var layoutErr *LayoutError
	return errors.As(err, &layoutErr)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
