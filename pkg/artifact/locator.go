// Package artifact resolves short, extension-free ids to files inside
// analysis output directories, and builds write targets for new artifacts.
//
// Every call scans the directories as they are now; nothing is cached.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/goproj/pkg/exttype"
	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/fulmenhq/goproj/pkg/safeio"
	"github.com/go-git/go-billy/v5/osfs"
)

// Handle names an artifact by id and absolute path. The file may not exist
// yet when the handle is a write target.
type Handle struct {
	ID   string
	Path string
}

// Ext returns the extension of the handle's file name.
func (h Handle) Ext() string {
	return exttype.Ext(h.Path)
}

// Location is a labeled directory to search.
type Location struct {
	Label string
	Dir   string
}

// Match is one file found by FindByID.
type Match struct {
	Label string
	Name  string
	Path  string
}

// ListFiles returns every regular file directly inside dir, sorted by path.
// A missing directory yields no files.
func ListFiles(dir string) ([]Handle, error) {
	canonical, err := safeio.CanonicalPath(dir)
	if err != nil {
		return nil, err
	}

	fs := osfs.New(canonical)
	infos, err := fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", canonical, err)
	}

	handles := make([]Handle, 0, len(infos))
	for _, info := range infos {
		if info.Mode()&os.ModeSymlink != 0 {
			// follow links; a target that vanished since the listing is skipped
			target, err := fs.Stat(info.Name())
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, fmt.Errorf("failed to stat %s: %w", filepath.Join(canonical, info.Name()), err)
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			continue
		}
		name := filepath.Base(info.Name())
		handles = append(handles, Handle{
			ID:   exttype.Stem(name),
			Path: filepath.Join(canonical, name),
		})
	}

	sort.Slice(handles, func(i, j int) bool { return handles[i].Path < handles[j].Path })
	return handles, nil
}

// ListMatching is ListFiles filtered by a doublestar pattern on file names.
func ListMatching(dir, pattern string) ([]Handle, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	all, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []Handle
	for _, h := range all {
		if ok, _ := doublestar.Match(pattern, filepath.Base(h.Path)); ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// FindByID returns the single file whose id matches across all locations.
// An id that carries an extension matches the exact file name instead.
func FindByID(locs []Location, id string) (Handle, error) {
	var matches []Match
	for _, loc := range locs {
		files, err := ListFiles(loc.Dir)
		if err != nil {
			return Handle{}, err
		}
		for _, f := range files {
			name := filepath.Base(f.Path)
			if f.ID == id || name == id {
				matches = append(matches, Match{Label: loc.Label, Name: name, Path: f.Path})
			}
		}
	}

	switch len(matches) {
	case 0:
		return Handle{}, &NotFoundError{ID: id, Searched: locs}
	case 1:
		logger.Debug("artifact resolved",
			logger.String("id", id),
			logger.String("label", matches[0].Label),
			logger.String("path", matches[0].Path))
		return Handle{ID: exttype.Stem(matches[0].Name), Path: matches[0].Path}, nil
	default:
		return Handle{}, &AmbiguousError{ID: id, Matches: matches}
	}
}

// BuildOutputPath resolves name against typ and places the file in base.
// The name must be a single non-empty path element. The filesystem is not
// touched beyond canonicalizing base.
func BuildOutputPath(base, name, typ string) (Handle, error) {
	clean, err := safeio.CleanName(name)
	if err != nil {
		return Handle{}, fmt.Errorf("invalid artifact name: %w", err)
	}
	res, err := exttype.Resolve(clean, typ)
	if err != nil {
		return Handle{}, err
	}
	dir, err := safeio.CanonicalPath(base)
	if err != nil {
		return Handle{}, err
	}
	return Handle{ID: res.ID, Path: filepath.Join(dir, res.FileName)}, nil
}
