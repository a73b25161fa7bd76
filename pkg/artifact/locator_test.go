package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/goproj/pkg/exttype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
}

func TestListFiles(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "b.csv", "a.parquet", "plot.final.png", ".gitkeep")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	touch(t, filepath.Join(dir, "nested"), "deep.csv")

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []Handle{
		{ID: ".gitkeep", Path: filepath.Join(dir, ".gitkeep")},
		{ID: "a", Path: filepath.Join(dir, "a.parquet")},
		{ID: "b", Path: filepath.Join(dir, "b.csv")},
		{ID: "plot.final", Path: filepath.Join(dir, "plot.final.png")},
	}, files)

	again, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, files, again)
}

func TestListFiles_MissingOrEmpty(t *testing.T) {
	dir := tempDir(t)

	files, err := ListFiles(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = ListFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFiles_RelativeDirIsCanonicalized(t *testing.T) {
	dir := tempDir(t)
	touch(t, filepath.Join(dir, "out"), "r.csv")

	files, err := ListFiles(filepath.Join(dir, "out", "..", "out"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "out", "r.csv"), files[0].Path)
}

func TestListFiles_FollowsSymlinks(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "target.csv")
	if err := os.Symlink(filepath.Join(dir, "target.csv"), filepath.Join(dir, "link.csv")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "vanished.csv"), filepath.Join(dir, "dangling.csv")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := ListFiles(dir)
	require.NoError(t, err)
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"link", "target"}, ids)
}

func TestListMatching(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "fig_a.png", "fig_b.svg", "table.csv")

	files, err := ListMatching(dir, "fig_*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "fig_a", files[0].ID)
	assert.Equal(t, "fig_b", files[1].ID)

	files, err = ListMatching(dir, "*.{csv,tsv}")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "table", files[0].ID)

	_, err = ListMatching(dir, "[")
	assert.Error(t, err)
}

func TestFindByID(t *testing.T) {
	root := tempDir(t)
	out1 := filepath.Join(root, "out1")
	out2 := filepath.Join(root, "out2")
	touch(t, out1, "r.csv", "other.csv")
	touch(t, out2, "s.parquet")

	locs := []Location{{Label: "current", Dir: out1}, {Label: "other", Dir: out2}}

	h, err := FindByID(locs, "r")
	require.NoError(t, err)
	assert.Equal(t, Handle{ID: "r", Path: filepath.Join(out1, "r.csv")}, h)
	assert.Equal(t, "csv", h.Ext())

	h, err = FindByID(locs, "s.parquet")
	require.NoError(t, err)
	assert.Equal(t, Handle{ID: "s", Path: filepath.Join(out2, "s.parquet")}, h)
}

func TestFindByID_AmbiguousAcrossLocations(t *testing.T) {
	root := tempDir(t)
	out1 := filepath.Join(root, "out1")
	out2 := filepath.Join(root, "out2")
	touch(t, out1, "r.csv")
	touch(t, out2, "r.parquet")

	_, err := FindByID([]Location{{Label: "current", Dir: out1}, {Label: "other", Dir: out2}}, "r")
	require.Error(t, err)
	assert.True(t, IsAmbiguous(err))

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.False(t, ambiguous.SingleLocation())
	assert.Equal(t, []string{"current", "other"}, ambiguous.Labels())

	msg := err.Error()
	assert.Contains(t, msg, "2 different locations")
	for _, want := range []string{"current", "other", "r.csv", "r.parquet", "specify which location"} {
		assert.Contains(t, msg, want)
	}
}

func TestFindByID_AmbiguousInOneLocation(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "r.csv", "r.parquet", "r.png")

	_, err := FindByID([]Location{{Label: "qc/outputs", Dir: dir}}, "r")
	require.Error(t, err)

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.True(t, ambiguous.SingleLocation())
	assert.Len(t, ambiguous.Matches, 3)

	msg := err.Error()
	assert.Contains(t, msg, `3 files with id "r" in qc/outputs`)
	assert.Contains(t, msg, "rename or remove")
	assert.NotContains(t, msg, "different locations")

	h, err := FindByID([]Location{{Label: "qc/outputs", Dir: dir}}, "r.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "r.png"), h.Path)
}

func TestFindByID_NotFound(t *testing.T) {
	root := tempDir(t)
	out := filepath.Join(root, "out")
	touch(t, out, "x.csv")

	locs := []Location{{Label: "qc/outputs", Dir: out}, {Label: "qc/intermediate", Dir: filepath.Join(root, "missing")}}
	_, err := FindByID(locs, "r")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	msg := err.Error()
	assert.Contains(t, msg, `"r"`)
	assert.Contains(t, msg, "2 searched location(s)")
	assert.Contains(t, msg, "qc/outputs")
	assert.Contains(t, msg, out)
	assert.Contains(t, msg, "qc/intermediate")

	_, err = FindByID(nil, "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no locations were searched")
}

func TestBuildOutputPath(t *testing.T) {
	dir := tempDir(t)
	base := filepath.Join(dir, "outputs")

	h, err := BuildOutputPath(base, "summary", "table")
	require.NoError(t, err)
	assert.Equal(t, Handle{ID: "summary", Path: filepath.Join(base, "summary.parquet")}, h)
	_, statErr := os.Stat(base)
	assert.True(t, os.IsNotExist(statErr), "BuildOutputPath must not create directories")

	h, err = BuildOutputPath(base, "fit", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "fit.rds"), h.Path)

	_, err = BuildOutputPath(base, "summary.png", "table")
	require.Error(t, err)
	assert.True(t, exttype.IsTypeMismatch(err))
}

func TestBuildOutputPath_RejectsBadNames(t *testing.T) {
	base := tempDir(t)

	for _, name := range []string{"", "   ", ".", "..", "sub/r", `sub\r`} {
		t.Run(name, func(t *testing.T) {
			h, err := BuildOutputPath(base, name, "table")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid artifact name")
			assert.Equal(t, Handle{}, h)
		})
	}
}

func TestBuildOutputPath_RoundTrip(t *testing.T) {
	dir := tempDir(t)

	h, err := BuildOutputPath(dir, "r", "table")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(h.Path, []byte("data"), 0o644))

	found, err := FindByID([]Location{{Label: "outputs", Dir: dir}}, "r")
	require.NoError(t, err)
	assert.Equal(t, h, found)
}
