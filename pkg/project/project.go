// Package project ties the layout of a research project on disk to the
// input declaration, local mapping, and artifact lookup packages.
//
// A project root holds the declaration file, the machine-local mapping file
// and an analyses directory. Each analysis has outputs and intermediate
// directories that serve as its artifact search roots. Files are re-read on
// every call.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/goproj/pkg/config"
	"github.com/fulmenhq/goproj/pkg/inputs"
	"github.com/fulmenhq/goproj/pkg/localmap"
	"github.com/fulmenhq/goproj/pkg/logger"
	"github.com/fulmenhq/goproj/pkg/reconcile"
	"github.com/fulmenhq/goproj/pkg/safeio"
)

// Project is an opened project root.
type Project struct {
	Root     string
	Settings config.Settings
}

// Open opens the project at root, loading its settings.
func Open(root string) (*Project, error) {
	canonical, err := checkRoot(root)
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(canonical)
	if err != nil {
		return nil, err
	}
	return &Project{Root: canonical, Settings: *settings}, nil
}

// OpenWithSettings opens the project at root with explicit settings.
func OpenWithSettings(root string, settings config.Settings) (*Project, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	canonical, err := checkRoot(root)
	if err != nil {
		return nil, err
	}
	return &Project{Root: canonical, Settings: settings}, nil
}

// Discover walks up from dir to the nearest directory holding a declaration
// file and opens it. Settings files are only read in directories that could
// be the project; one that fails to load is skipped with a warning.
func Discover(dir string) (*Project, error) {
	start, err := safeio.CanonicalPath(dir)
	if err != nil {
		return nil, err
	}
	base, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	var skipped []error
	for current := start; ; {
		if path, ok := config.Locate(current); ok {
			settings, err := config.Load(current)
			switch {
			case err != nil:
				logger.Warn("skipping directory with unreadable settings",
					logger.String("path", path), logger.Err(err))
				skipped = append(skipped, err)
			case isFile(filepath.Join(current, settings.Files.Declaration)):
				return discovered(current, start, *settings), nil
			}
		} else if isFile(filepath.Join(current, base.Files.Declaration)) {
			return discovered(current, start, *base), nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			notFound := fmt.Errorf("%w: no declaration file found above %s", ErrNotAProject, start)
			return nil, errors.Join(append([]error{notFound}, skipped...)...)
		}
		current = parent
	}
}

func discovered(root, from string, settings config.Settings) *Project {
	logger.Debug("discovered project", logger.String("root", root), logger.String("from", from))
	return &Project{Root: root, Settings: settings}
}

func checkRoot(root string) (string, error) {
	canonical, err := safeio.CanonicalPath(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(canonical)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNotAProject, canonical)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotAProject, canonical)
	}
	return canonical, nil
}

// DeclarationFile is the absolute path of the committed declaration file.
func (p *Project) DeclarationFile() string {
	return filepath.Join(p.Root, p.Settings.Files.Declaration)
}

// LocalFile is the absolute path of the machine-local mapping file.
func (p *Project) LocalFile() string {
	return filepath.Join(p.Root, p.Settings.Files.Local)
}

// AnalysesDir is the absolute path of the analyses directory.
func (p *Project) AnalysesDir() string {
	return filepath.Join(p.Root, p.Settings.Layout.Analyses)
}

// Declarations reads and normalizes the declaration file.
func (p *Project) Declarations() ([]inputs.Declaration, error) {
	path := p.DeclarationFile()
	data, err := safeio.ReadFileContained(p.Root, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	decls, err := inputs.Parse(data, inputs.FormatForPath(path))
	if err != nil {
		var schemaErr *inputs.SchemaError
		if errors.As(err, &schemaErr) {
			schemaErr.File = p.Settings.Files.Declaration
			return nil, schemaErr
		}
		return nil, fmt.Errorf("%s: %w", p.Settings.Files.Declaration, err)
	}
	logger.Debug("loaded declaration file", logger.String("path", path), logger.Int("inputs", len(decls)))
	return decls, nil
}

// LocalPaths reads the local mapping file. A missing file yields an empty
// mapping so that reconciliation reports every declared id.
func (p *Project) LocalPaths() (map[string]string, error) {
	path := p.LocalFile()
	data, err := safeio.ReadFileContained(p.Root, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("local mapping file not found", logger.String("path", path))
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read local mapping file: %w", err)
	}
	return localmap.LoadBytes(p.Settings.Files.Local, data)
}

// Inputs normalizes the declaration, reconciles it against the local
// mapping and, when enabled, verifies declared md5 and size metadata.
func (p *Project) Inputs() ([]reconcile.ResolvedInput, error) {
	decls, err := p.Declarations()
	if err != nil {
		return nil, err
	}
	local, err := p.LocalPaths()
	if err != nil {
		return nil, err
	}
	resolved, err := reconcile.ReconcileWithOptions(inputs.IDs(decls), local, p.Root,
		reconcile.Options{LocalFile: p.Settings.Files.Local})
	if err != nil {
		return nil, err
	}
	if p.Settings.Validation.VerifyIntegrity {
		if err := reconcile.Verify(resolved, decls); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// Input resolves a single declared input by id.
func (p *Project) Input(id string) (reconcile.ResolvedInput, error) {
	resolved, err := p.Inputs()
	if err != nil {
		return reconcile.ResolvedInput{}, err
	}
	for _, r := range resolved {
		if r.ID == id {
			return r, nil
		}
	}
	return reconcile.ResolvedInput{}, fmt.Errorf("input %q is not declared in %s", id, p.Settings.Files.Declaration)
}

// Validate checks the layout and reconciles inputs, reporting both kinds of
// problem together.
func (p *Project) Validate() error {
	var errs []error

	var missing []string
	if !isDir(p.AnalysesDir()) {
		missing = append(missing, p.Settings.Layout.Analyses+"/")
	}
	if !isFile(p.DeclarationFile()) {
		missing = append(missing, p.Settings.Files.Declaration)
	}
	if len(missing) > 0 {
		errs = append(errs, &LayoutError{Root: p.Root, Missing: missing})
	}

	if isFile(p.DeclarationFile()) {
		if _, err := p.Inputs(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.Settings.Validation.RequireGitignoredLocal && isFile(p.LocalFile()) {
		ignored, err := localmap.IsGitIgnored(p.Root, p.LocalFile())
		if err != nil {
			logger.Warn("could not check ignore rules for local mapping file", logger.Err(err))
		} else if !ignored {
			logger.Warn("local mapping file is not git-ignored; it holds machine-specific paths",
				logger.String("file", p.Settings.Files.Local))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Debug("project validated", logger.String("root", p.Root))
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
