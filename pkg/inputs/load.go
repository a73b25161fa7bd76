package inputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a declaration file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatForPath picks the format from a file extension. Unknown extensions
// are read as YAML, which is also a superset of JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Decode parses raw declaration bytes into a generic tree.
func Decode(data []byte, format Format) (any, error) {
	var tree any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		tree = doc
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported declaration format %q", format)
	}
	return tree, nil
}

// Parse decodes and normalizes declaration bytes.
func Parse(data []byte, format Format) ([]Declaration, error) {
	tree, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return Normalize(tree)
}

// LoadFile reads and normalizes the declaration file at path. The file is
// read on every call.
func LoadFile(path string) ([]Declaration, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-selected project file
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	logger.Debug("loaded declaration file", logger.String("path", path))

	decls, err := Parse(data, FormatForPath(path))
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.File = path
			return nil, schemaErr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decls, nil
}
