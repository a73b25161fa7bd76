// Package exttype maps a declared logical artifact type to a concrete file
// extension and validates explicit extensions against that type.
package exttype

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// ObjectDefault is the extension used when neither a type nor an extension is given.
const ObjectDefault = "rds"

// Resolution is the outcome of resolving a name against a type.
type Resolution struct {
	FileName string // name with its final extension
	ID       string // name without extension
	Ext      string // extension without the leading dot
}

// rule is one entry of the type vocabulary.
type rule struct {
	defaultExt string
	allowed    map[string]struct{}
}

// Registry holds the type to extension vocabulary. Keys and extensions are
// compared case-insensitively.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]rule
}

// NewRegistry returns a registry preloaded with the built-in vocabulary.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[string]rule)}
	r.mustRegister("table", "parquet", "parquet", "pqt", "tsv", "csv", "rds", "rdata", "rda")
	r.mustRegister("object", "rdata", "rdata", "rda", "rds")
	for _, t := range []string{"image", "figure"} {
		r.mustRegister(t, "png", "png", "jpeg", "jpg", "svg", "gif", "tiff", "bmp")
	}
	for _, t := range []string{"parquet", "pqt"} {
		r.mustRegister(t, "parquet", "parquet", "pqt")
	}
	return r
}

// Default is the registry used by the package-level Resolve.
var Default = NewRegistry()

func fold(s string) string {
	return cases.Fold().String(s)
}

// Register adds or replaces a type. The default extension is always part of
// the allowed set.
func (r *Registry) Register(typ, defaultExt string, allowed ...string) error {
	typ = strings.TrimSpace(typ)
	defaultExt = strings.TrimPrefix(strings.TrimSpace(defaultExt), ".")
	if typ == "" {
		return fmt.Errorf("type token must not be empty")
	}
	if defaultExt == "" {
		return fmt.Errorf("type %q: default extension must not be empty", typ)
	}

	set := map[string]struct{}{fold(defaultExt): {}}
	for _, ext := range allowed {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		set[fold(ext)] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[fold(typ)] = rule{defaultExt: strings.ToLower(defaultExt), allowed: set}
	return nil
}

func (r *Registry) mustRegister(typ, defaultExt string, allowed ...string) {
	if err := r.Register(typ, defaultExt, allowed...); err != nil {
		panic(err)
	}
}

// Known reports whether typ is a registered type token.
func (r *Registry) Known(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[fold(typ)]
	return ok
}

// DefaultExt returns the extension used for typ when a name carries none.
// Unregistered types pass through as their own extension.
func (r *Registry) DefaultExt(typ string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ru, ok := r.rules[fold(typ)]; ok {
		return ru.defaultExt
	}
	return typ
}

// Allowed returns the sorted allowed extensions for typ. An unregistered
// type allows only itself.
func (r *Registry) Allowed(typ string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ru, ok := r.rules[fold(typ)]
	if !ok {
		return []string{fold(typ)}
	}
	out := make([]string, 0, len(ru.allowed))
	for ext := range ru.allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Allows reports whether ext is acceptable for typ.
func (r *Registry) Allows(typ, ext string) bool {
	ext = fold(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()
	ru, ok := r.rules[fold(typ)]
	if !ok {
		return ext == fold(typ)
	}
	_, allowed := ru.allowed[ext]
	return allowed
}

// Resolve computes the final file name and id for name given an optional
// type (empty means absent).
func (r *Registry) Resolve(name, typ string) (Resolution, error) {
	id := Stem(name)
	ext := Ext(name)
	typ = strings.TrimSpace(typ)

	switch {
	case typ == "" && ext == "":
		ext = ObjectDefault
	case typ == "":
		// explicit extension, nothing to validate
	case ext == "":
		ext = r.DefaultExt(typ)
	default:
		if !r.Allows(typ, ext) {
			return Resolution{}, &TypeMismatchError{
				Name:    name,
				Type:    typ,
				Ext:     ext,
				Allowed: r.Allowed(typ),
			}
		}
	}

	return Resolution{FileName: id + "." + ext, ID: id, Ext: ext}, nil
}

// Resolve resolves name against typ using the Default registry.
func Resolve(name, typ string) (Resolution, error) {
	return Default.Resolve(name, typ)
}

// Ext returns the extension of the base name without the dot, or "" when
// there is none. Dotfiles such as ".gitkeep" have no extension.
func Ext(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}

// Stem returns name with its extension removed.
func Stem(name string) string {
	ext := Ext(name)
	if ext == "" {
		return strings.TrimSuffix(name, ".")
	}
	return strings.TrimSuffix(name, "."+ext)
}
