package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/goproj/pkg/artifact"
	"github.com/fulmenhq/goproj/pkg/safeio"
	"github.com/go-git/go-billy/v5/osfs"
)

// Analysis is one directory under the project's analyses directory.
type Analysis struct {
	Name    string
	Dir     string
	project *Project
}

// OutputsDir is the absolute path of the analysis outputs directory.
func (a *Analysis) OutputsDir() string {
	return filepath.Join(a.Dir, a.project.Settings.Layout.Outputs)
}

// IntermediateDir is the absolute path of the analysis intermediate directory.
func (a *Analysis) IntermediateDir() string {
	return filepath.Join(a.Dir, a.project.Settings.Layout.Intermediate)
}

// Locations returns the labeled search roots of the analysis, outputs first.
func (a *Analysis) Locations() []artifact.Location {
	return []artifact.Location{
		{Label: a.Name + "/" + a.project.Settings.Layout.Outputs, Dir: a.OutputsDir()},
		{Label: a.Name + "/" + a.project.Settings.Layout.Intermediate, Dir: a.IntermediateDir()},
	}
}

// OutputPath builds a write target in the outputs directory.
func (a *Analysis) OutputPath(name, typ string) (artifact.Handle, error) {
	return artifact.BuildOutputPath(a.OutputsDir(), name, typ)
}

// IntermediatePath builds a write target in the intermediate directory.
func (a *Analysis) IntermediatePath(name, typ string) (artifact.Handle, error) {
	return artifact.BuildOutputPath(a.IntermediateDir(), name, typ)
}

// Find resolves id within this analysis.
func (a *Analysis) Find(id string) (artifact.Handle, error) {
	return artifact.FindByID(a.Locations(), id)
}

// Artifacts lists the files in both search roots whose names match pattern.
// An empty pattern lists everything.
func (a *Analysis) Artifacts(pattern string) ([]artifact.Handle, error) {
	var out []artifact.Handle
	for _, loc := range a.Locations() {
		var (
			files []artifact.Handle
			err   error
		)
		if pattern == "" {
			files, err = artifact.ListFiles(loc.Dir)
		} else {
			files, err = artifact.ListMatching(loc.Dir, pattern)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// Analyses lists the analyses of the project sorted by name. Hidden
// directories are skipped; a missing analyses directory yields none.
func (p *Project) Analyses() ([]*Analysis, error) {
	fs := osfs.New(p.AnalysesDir())
	infos, err := fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	var out []*Analysis
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := fs.Stat(name)
			if err != nil {
				continue
			}
			info = target
		}
		if !info.IsDir() {
			continue
		}
		out = append(out, p.analysis(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Analysis returns the named analysis.
func (p *Project) Analysis(name string) (*Analysis, error) {
	clean, err := safeio.CleanName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSuchAnalysis, err)
	}
	a := p.analysis(clean)
	if !isDir(a.Dir) {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoSuchAnalysis, clean, p.AnalysesDir())
	}
	return a, nil
}

// AnalysisFor returns the analysis containing dir, e.g. the working
// directory of a running script.
func (p *Project) AnalysisFor(dir string) (*Analysis, error) {
	canonical, err := safeio.CanonicalPath(dir)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(p.AnalysesDir(), canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not inside %s", ErrNoSuchAnalysis, canonical, p.AnalysesDir())
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if parts[0] == "." || parts[0] == ".." {
		return nil, fmt.Errorf("%w: %s is not inside %s", ErrNoSuchAnalysis, canonical, p.AnalysesDir())
	}
	return p.Analysis(parts[0])
}

func (p *Project) analysis(name string) *Analysis {
	return &Analysis{Name: name, Dir: filepath.Join(p.AnalysesDir(), name), project: p}
}

// Scope selects where FindArtifact searches.
type Scope struct {
	// Analysis limits the search to one analysis; empty means all analyses.
	Analysis string
}

// AllAnalyses searches every analysis of the project.
var AllAnalyses = Scope{}

// InAnalysis searches only the named analysis.
func InAnalysis(name string) Scope {
	return Scope{Analysis: name}
}

// FindArtifact resolves id across the analyses selected by scope.
func (p *Project) FindArtifact(id string, scope Scope) (artifact.Handle, error) {
	if scope.Analysis != "" {
		a, err := p.Analysis(scope.Analysis)
		if err != nil {
			return artifact.Handle{}, err
		}
		return a.Find(id)
	}

	analyses, err := p.Analyses()
	if err != nil {
		return artifact.Handle{}, err
	}
	var locs []artifact.Location
	for _, a := range analyses {
		locs = append(locs, a.Locations()...)
	}
	return artifact.FindByID(locs, id)
}
