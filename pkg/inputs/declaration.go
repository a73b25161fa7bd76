// Package inputs parses the portable declaration file that lists the named
// inputs a project expects.
//
// The "inputs" value may be written in several equivalent shapes:
//
//	inputs: [a, b]                 # bare list
//	inputs:                        # mixed list
//	  - a
//	  - b: {md5: "..."}
//	inputs:                        # explicit object
//	  a:
//	  b: {size: 10}
//
// A block-style mixed list item whose metadata is indented at the same level
// as its id decodes as one mapping with a single null key plus sibling keys:
//
//	inputs:
//	  - b:
//	    md5: "..."
//
// That legacy shape is accepted and treated as id "b" with metadata {md5}.
// Normalize folds all shapes into the same ordered []Declaration.
package inputs

import (
	"fmt"
	"math"
	"sort"
)

// Recognized metadata keys.
const (
	KeyMD5         = "md5"
	KeySize        = "size"
	KeyDescription = "description"
)

// Declaration is one declared input: an id plus optional metadata.
// Unrecognized metadata keys are kept as-is.
type Declaration struct {
	ID       string
	Metadata map[string]any
}

// MD5 returns the declared md5 checksum, if any.
func (d Declaration) MD5() (string, bool) {
	v, ok := d.Metadata[KeyMD5].(string)
	return v, ok
}

// Description returns the declared description, if any.
func (d Declaration) Description() (string, bool) {
	v, ok := d.Metadata[KeyDescription].(string)
	return v, ok
}

// Size returns the declared size in bytes, if any.
func (d Declaration) Size() (int64, bool) {
	v, ok := d.Metadata[KeySize]
	if !ok {
		return 0, false
	}
	return asSize(v)
}

// IDs returns the ids of decls in order.
func IDs(decls []Declaration) []string {
	ids := make([]string, len(decls))
	for i, d := range decls {
		ids[i] = d.ID
	}
	return ids
}

// validateMetadata enforces the recognized-key rules shared by every shape.
func validateMetadata(path, id string, meta map[string]any) error {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := meta[k]
		switch k {
		case KeyMD5, KeyDescription:
			if _, ok := v.(string); !ok {
				return &SchemaError{
					Path:     fmt.Sprintf("%s.%s", path, k),
					ID:       id,
					Problem:  fmt.Sprintf("%q has a %s value", k, kindOf(v)),
					Expected: "a string",
				}
			}
		case KeySize:
			if _, ok := asNumber(v); !ok {
				return &SchemaError{
					Path:     fmt.Sprintf("%s.%s", path, k),
					ID:       id,
					Problem:  fmt.Sprintf("%q has a %s value", k, kindOf(v)),
					Expected: "a number",
				}
			}
			if _, ok := asSize(v); !ok {
				return &SchemaError{
					Path:     fmt.Sprintf("%s.%s", path, k),
					ID:       id,
					Problem:  fmt.Sprintf("%q is %v", k, v),
					Expected: "a whole, non-negative number of bytes",
				}
			}
		}
	}
	return nil
}

// maxSize is the largest byte count a float64 holds exactly.
const maxSize = 1 << 53

func asSize(v any) (int64, bool) {
	n, ok := asNumber(v)
	if !ok || n < 0 || n > maxSize || n != math.Trunc(n) {
		return 0, false
	}
	return int64(n), true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case float64:
		return n, !math.IsNaN(n)
	}
	return 0, false
}

// kindOf names the shape of a decoded value for error messages.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "mapping"
	}
	if _, ok := asNumber(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
