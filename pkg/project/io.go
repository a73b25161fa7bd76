package project

import (
	"fmt"

	"github.com/fulmenhq/goproj/pkg/artifact"
	"github.com/fulmenhq/goproj/pkg/exttype"
	"github.com/fulmenhq/goproj/pkg/reconcile"
	"golang.org/x/text/cases"
)

// Codec reads and writes one file format. Implementations live outside this
// module.
type Codec interface {
	Read(path string) (any, error)
	Write(path string, v any) error
}

// Codecs maps file extensions (without the dot) to codecs. Lookup is
// case-insensitive and uses only the final extension of the file name.
type Codecs map[string]Codec

func (c Codecs) lookup(path string) (Codec, error) {
	folder := cases.Fold()
	ext := folder.String(exttype.Ext(path))
	for key, codec := range c {
		if folder.String(key) == ext {
			return codec, nil
		}
	}
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrNoCodec, path)
	}
	return nil, fmt.Errorf("%w %q (%s)", ErrNoCodec, ext, path)
}

// Load reads an artifact with the codec for its extension.
func (c Codecs) Load(h artifact.Handle) (any, error) {
	codec, err := c.lookup(h.Path)
	if err != nil {
		return nil, err
	}
	return codec.Read(h.Path)
}

// LoadInput reads a resolved input with the codec for its extension.
func (c Codecs) LoadInput(in reconcile.ResolvedInput) (any, error) {
	return c.Load(artifact.Handle{ID: in.ID, Path: in.Path})
}

// Store writes v to an artifact with the codec for its extension.
func (c Codecs) Store(h artifact.Handle, v any) error {
	codec, err := c.lookup(h.Path)
	if err != nil {
		return err
	}
	return codec.Write(h.Path, v)
}
