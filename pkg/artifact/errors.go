package artifact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// NotFoundError reports that no file matched an id in the searched locations.
type NotFoundError struct {
	ID       string
	Searched []Location
}

func (e *NotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("no artifact with id %q: no locations were searched", e.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "no artifact with id %q in %d searched location(s):", e.ID, len(e.Searched))
	width := 0
	for _, loc := range e.Searched {
		width = max(width, runewidth.StringWidth(loc.Label))
	}
	for _, loc := range e.Searched {
		fmt.Fprintf(&b, "\n  - %s  %s", runewidth.FillRight(loc.Label, width), loc.Dir)
	}
	return b.String()
}

// AmbiguousError reports that more than one file matched an id.
type AmbiguousError struct {
	ID      string
	Matches []Match
}

// Labels returns the distinct location labels of the matches in order.
func (e *AmbiguousError) Labels() []string {
	var labels []string
	seen := make(map[string]bool)
	for _, m := range e.Matches {
		if !seen[m.Label] {
			seen[m.Label] = true
			labels = append(labels, m.Label)
		}
	}
	return labels
}

// SingleLocation reports whether every match came from the same location.
func (e *AmbiguousError) SingleLocation() bool {
	return len(e.Labels()) == 1
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	labels := e.Labels()
	if len(labels) == 1 {
		fmt.Fprintf(&b, "%d files with id %q in %s:", len(e.Matches), e.ID, labels[0])
	} else {
		fmt.Fprintf(&b, "id %q found in %d different locations (%d files):", e.ID, len(labels), len(e.Matches))
	}

	width := 0
	for _, m := range e.Matches {
		width = max(width, runewidth.StringWidth(m.Label))
	}
	for _, m := range e.Matches {
		fmt.Fprintf(&b, "\n  - %s  %s", runewidth.FillRight(m.Label, width), m.Name)
	}

	if len(labels) == 1 {
		b.WriteString("\nrename or remove all but one of these files, or include the extension to pick one")
	} else {
		b.WriteString("\nspecify which location to read from, or rename the artifact in all but one of them")
	}
	return b.String()
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsAmbiguous reports whether err is (or wraps) an AmbiguousError.
func IsAmbiguous(err error) bool {
	var ambiguous *AmbiguousError
	return errors.As(err, &ambiguous)
}
