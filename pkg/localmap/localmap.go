// Package localmap loads the machine-specific file that maps declared input
// ids to filesystem paths. The file is not meant to be committed.
package localmap

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// RootKey is the top-level key of the local mapping file.
const RootKey = "paths"

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = mustCompile(schemaJSON)

func mustCompile(data []byte) *gojsonschema.Schema {
	sch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("localmap: invalid embedded schema: %v", err))
	}
	return sch
}

// FormatError lists every way a local mapping file breaks the expected shape.
type FormatError struct {
	File     string
	Problems []string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("invalid local mapping file")
	if e.File != "" {
		fmt.Fprintf(&b, " %s", e.File)
	}
	fmt.Fprintf(&b, " (expected a %q mapping of id to path string):", RootKey)
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  - %s", p)
	}
	return b.String()
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// Parse decodes and validates local mapping YAML. A null "paths" value
// yields an empty map.
func Parse(data []byte) (map[string]string, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	tree = jsonCompatible(tree)

	if err := Validate(tree); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	top := tree.(map[string]any)
	paths, _ := top[RootKey].(map[string]any)
	for id, v := range paths {
		out[id] = v.(string)
	}
	return out, nil
}

// Validate checks a decoded tree against the embedded schema and reports all
// violations at once.
func Validate(tree any) error {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(tree))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	sort.Strings(problems)
	return &FormatError{Problems: problems}
}

// Load reads the local mapping file at path. It is read on every call; a
// missing file returns an error wrapping os.ErrNotExist.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-selected project file
	if err != nil {
		return nil, fmt.Errorf("failed to read local mapping file: %w", err)
	}
	return load(path, data)
}

// LoadBytes is Load for content the caller already read.
func LoadBytes(path string, data []byte) (map[string]string, error) {
	return load(path, data)
}

func load(path string, data []byte) (map[string]string, error) {
	paths, err := Parse(data)
	if err != nil {
		var formatErr *FormatError
		if errors.As(err, &formatErr) {
			formatErr.File = path
			return nil, formatErr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded local mapping file", logger.String("path", path), logger.Int("entries", len(paths)))
	return paths, nil
}

// IsGitIgnored reports whether the .gitignore files under root exclude file.
// Files outside root are reported as not ignored.
func IsGitIgnored(root, file string) (bool, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false, nil
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false, nil
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return false, fmt.Errorf("failed to read ignore patterns: %w", err)
	}
	return gitignore.NewMatcher(patterns).Match(strings.Split(rel, "/"), false), nil
}

// jsonCompatible rewrites map[any]any nodes so the tree can be handed to the
// schema validator.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case map[string]any:
		for k, item := range val {
			val[k] = jsonCompatible(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = jsonCompatible(item)
		}
		return val
	}
	return v
}
