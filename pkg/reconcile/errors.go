package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"
)

// ReconciliationError aggregates every declared id that is not mapped and
// every mapped file that does not exist.
type ReconciliationError struct {
	Missing    []string
	Unresolved []UnresolvedPath
	LocalFile  string
	Root       string
	Declared   int
}

const reportSource = `input reconciliation failed for {{declared}} declared input(s): {{{summary}}}
{{#if missing}}

Missing entries ({{missingCount}}), declared but not mapped in {{{localFile}}}:
{{#each missing}}
  - {{{this}}}
{{/each}}
{{/if}}
{{#if unresolved}}

Missing files ({{unresolvedCount}}), mapped but not found on disk (as written -> resolved):
{{#each unresolved}}
  - {{{this}}}
{{/each}}
{{/if}}

To fix:
{{#if missing}}
  add the missing ids to {{{localFile}}}, for example

    paths:
{{#each snippet}}
      {{{this}}}
{{/each}}
{{/if}}
{{#if unresolved}}
  point every missing file entry in {{{localFile}}} at an existing file
  (relative paths are resolved against {{{root}}})
{{/if}}`

var reportTemplate = raymond.MustParse(reportSource)

var plainKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

func (e *ReconciliationError) Error() string {
	out, err := reportTemplate.Exec(e.reportContext())
	if err != nil {
		return fmt.Sprintf("input reconciliation failed: %s (missing entries: %s)", e.summary(), strings.Join(e.Missing, ", "))
	}
	return strings.TrimRight(collapseBlankLines(out), "\n")
}

func (e *ReconciliationError) summary() string {
	var parts []string
	if n := len(e.Missing); n > 0 {
		parts = append(parts, plural(n, "missing entry", "missing entries"))
	}
	if n := len(e.Unresolved); n > 0 {
		parts = append(parts, plural(n, "missing file", "missing files"))
	}
	return strings.Join(parts, ", ")
}

func (e *ReconciliationError) reportContext() map[string]interface{} {
	missing := make([]string, len(e.Missing))
	snippet := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		missing[i] = id
		snippet[i] = fmt.Sprintf("%s: path/to/%s", yamlKey(id), id)
	}

	idWidth, pathWidth := 0, 0
	for _, u := range e.Unresolved {
		idWidth = max(idWidth, runewidth.StringWidth(u.ID))
		pathWidth = max(pathWidth, runewidth.StringWidth(u.Path))
	}
	unresolved := make([]string, len(e.Unresolved))
	for i, u := range e.Unresolved {
		unresolved[i] = fmt.Sprintf("%s  %s  ->  %s",
			runewidth.FillRight(u.ID, idWidth),
			runewidth.FillRight(u.Path, pathWidth),
			u.Resolved)
	}

	return map[string]interface{}{
		"declared":        e.Declared,
		"summary":         e.summary(),
		"localFile":       e.LocalFile,
		"root":            e.Root,
		"missing":         missing,
		"missingCount":    len(missing),
		"snippet":         snippet,
		"unresolved":      unresolved,
		"unresolvedCount": len(unresolved),
	}
}

// MissingIDs returns the ids of both problem kinds in report order.
func (e *ReconciliationError) MissingIDs() []string {
	ids := append([]string(nil), e.Missing...)
	for _, u := range e.Unresolved {
		ids = append(ids, u.ID)
	}
	return ids
}

// IsReconciliationError reports whether err is (or wraps) a ReconciliationError.
func IsReconciliationError(err error) bool {
	var recErr *ReconciliationError
	return errors.As(err, &recErr)
}

func yamlKey(id string) string {
	if plainKey.MatchString(id) {
		return id
	}
	return fmt.Sprintf("%q", id)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// collapseBlankLines squeezes runs of blank lines left by template blocks.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
