package inputs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fulmenhq/goproj/pkg/logger"
)

// RootKey is the top-level key of the declaration file.
const RootKey = "inputs"

// identifierPattern gates the single-scalar form `inputs: some_id`.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Normalize turns a decoded declaration tree into its canonical list of
// declarations. Sequence shapes keep declaration order; the object shape is
// returned sorted by id.
func Normalize(raw any) ([]Declaration, error) {
	top, ok := asMapping(raw)
	if !ok {
		return nil, &SchemaError{
			Problem:  fmt.Sprintf("top level is a %s", kindOf(raw)),
			Expected: fmt.Sprintf("a mapping with an %q key", RootKey),
		}
	}
	value, ok := top[RootKey]
	if !ok {
		return nil, &SchemaError{
			Problem:  fmt.Sprintf("missing %q key", RootKey),
			Expected: fmt.Sprintf("a mapping with an %q key listing the project inputs", RootKey),
		}
	}

	shape, err := classify(value)
	if err != nil {
		return nil, err
	}
	decls, err := shape.normalize()
	if err != nil {
		return nil, err
	}

	logger.Debug("normalized inputs declaration",
		logger.String("shape", shape.name()),
		logger.Int("count", len(decls)))
	return decls, nil
}

// inputsShape is one accepted encoding of the "inputs" value.
type inputsShape interface {
	name() string
	normalize() ([]Declaration, error)
}

type scalarIDShape struct{ id string }

type bareListShape struct{ ids []string }

type mixedListShape struct{ items []any }

type objectShape struct{ entries map[string]any }

// classify inspects the "inputs" value once and picks its shape.
func classify(v any) (inputsShape, error) {
	switch val := v.(type) {
	case nil:
		return nil, emptyInputs()
	case string:
		if identifierPattern.MatchString(val) {
			return scalarIDShape{id: val}, nil
		}
		return nil, &SchemaError{
			Path:     RootKey,
			Problem:  fmt.Sprintf("%q is a plain string, not an id", val),
			Expected: "a list or object",
		}
	case []any:
		if len(val) == 0 {
			return nil, emptyInputs()
		}
		ids := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return mixedListShape{items: val}, nil
			}
			ids = append(ids, s)
		}
		return bareListShape{ids: ids}, nil
	}

	if m, ok := asMapping(v); ok {
		if len(m) == 0 {
			return nil, emptyInputs()
		}
		return objectShape{entries: m}, nil
	}
	return nil, &SchemaError{
		Path:     RootKey,
		Problem:  fmt.Sprintf("value is a %s", kindOf(v)),
		Expected: "a list or object",
	}
}

func emptyInputs() error {
	return &SchemaError{
		Path:     RootKey,
		Problem:  "no inputs declared",
		Expected: "at least one input id",
	}
}

func (s scalarIDShape) name() string { return "scalar" }

func (s scalarIDShape) normalize() ([]Declaration, error) {
	var b builder
	if err := b.add(RootKey, s.id, nil); err != nil {
		return nil, err
	}
	return b.out, nil
}

func (s bareListShape) name() string { return "list" }

func (s bareListShape) normalize() ([]Declaration, error) {
	var b builder
	for i, id := range s.ids {
		if err := b.add(itemPath(i), id, nil); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

func (s mixedListShape) name() string { return "mixed" }

func (s mixedListShape) normalize() ([]Declaration, error) {
	var b builder
	for i, raw := range s.items {
		path := itemPath(i)
		item, err := classifyItem(path, raw)
		if err != nil {
			return nil, err
		}
		id, meta, err := item.resolve(path)
		if err != nil {
			return nil, err
		}
		if err := b.add(path, id, meta); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

func (s objectShape) name() string { return "object" }

func (s objectShape) normalize() ([]Declaration, error) {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b builder
	for _, id := range ids {
		path := RootKey + "." + id
		meta, err := metadataOf(path, id, s.entries[id])
		if err != nil {
			return nil, err
		}
		if err := b.add(path, id, meta); err != nil {
			return nil, err
		}
	}
	return b.out, nil
}

// itemShape is one accepted encoding of a mixed-list element.
type itemShape interface {
	resolve(path string) (string, map[string]any, error)
}

type bareItem struct{ id string }

// keyedItem is `- id:` or `- id: {field: value}`.
type keyedItem struct {
	id    string
	value any
}

// siblingItem is the legacy block shape: one null key plus its fields.
type siblingItem struct {
	id     string
	fields map[string]any
}

func classifyItem(path string, raw any) (itemShape, error) {
	if s, ok := raw.(string); ok {
		return bareItem{id: s}, nil
	}

	m, ok := asMapping(raw)
	if !ok || len(m) == 0 {
		got := kindOf(raw)
		if ok {
			got = "empty mapping"
		}
		return nil, &SchemaError{
			Path:     path,
			Problem:  fmt.Sprintf("item is a %s, not a string or an id-keyed object", got),
			Expected: "`- id` or `- id: {field: value}`",
		}
	}

	if len(m) == 1 {
		for k, v := range m {
			return keyedItem{id: k, value: v}, nil
		}
	}

	keys := sortedKeys(m)
	var nullKeys []string
	for _, k := range keys {
		if m[k] == nil {
			nullKeys = append(nullKeys, k)
		}
	}

	switch len(nullKeys) {
	case 1:
		fields := make(map[string]any, len(m)-1)
		for k, v := range m {
			if k != nullKeys[0] {
				fields[k] = v
			}
		}
		return siblingItem{id: nullKeys[0], fields: fields}, nil
	case 0:
		return nil, &SchemaError{
			Path:     path,
			Problem:  fmt.Sprintf("item has fields (%s) but no id key", strings.Join(keys, ", ")),
			Expected: "`- id: {field: value}` or an id key with no value followed by its fields",
		}
	default:
		return nil, &SchemaError{
			Path:     path,
			Problem:  fmt.Sprintf("item has %d keys without values (%s); cannot tell which one is the id", len(nullKeys), strings.Join(nullKeys, ", ")),
			Expected: "exactly one id key per item",
		}
	}
}

func (i bareItem) resolve(string) (string, map[string]any, error) {
	return i.id, nil, nil
}

func (i keyedItem) resolve(path string) (string, map[string]any, error) {
	meta, err := metadataOf(path+"."+i.id, i.id, i.value)
	return i.id, meta, err
}

func (i siblingItem) resolve(path string) (string, map[string]any, error) {
	logger.Warn("input metadata written as sibling keys; nest it under the id instead",
		logger.String("id", i.id),
		logger.String("path", path))
	return i.id, i.fields, nil
}

// metadataOf accepts a metadata mapping or nothing.
func metadataOf(path, id string, v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := asMapping(v)
	if !ok {
		return nil, &SchemaError{
			Path:     path,
			ID:       id,
			Problem:  fmt.Sprintf("metadata is a %s", kindOf(v)),
			Expected: "a mapping of fields or no value",
		}
	}
	return m, nil
}

// builder accumulates declarations and enforces id uniqueness.
type builder struct {
	out  []Declaration
	seen map[string]string
}

func (b *builder) add(path, id string, meta map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return &SchemaError{Path: path, Problem: "empty id", Expected: "a non-empty input id"}
	}
	if b.seen == nil {
		b.seen = make(map[string]string)
	}
	if first, dup := b.seen[id]; dup {
		return &SchemaError{
			Path:     path,
			ID:       id,
			Problem:  fmt.Sprintf("duplicate id, first declared at %s", first),
			Expected: "each input id declared once",
		}
	}
	if err := validateMetadata(path, id, meta); err != nil {
		return err
	}
	b.seen[id] = path
	b.out = append(b.out, Declaration{ID: id, Metadata: meta})
	return nil
}

func itemPath(i int) string {
	return fmt.Sprintf("%s[%d]", RootKey, i)
}

// asMapping accepts both map shapes produced by YAML decoders. Scalar keys
// are stringified; any other key type makes the value a non-mapping.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			switch k.(type) {
			case string, bool, int, int64, uint64, float64:
				out[fmt.Sprint(k)] = val
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
