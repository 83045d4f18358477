package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestWalk(t *testing.T) {
	root := makeTree(t, map[string]string{
		"main.cpp":            "",
		"include/engine.h":    "",
		"include/engine.hpp":  "",
		"src/deep/node.cpp":   "",
		"notes.txt":           "",
		"Makefile":            "",
		".git/hooks/x.cpp":    "",
		"build/.git/keep.cpp": "",
	})

	files, err := Walk(root, DefaultSuffixes, DefaultExcludes)
	require.NoError(t, err)

	rel := RelativeTo(root, files)
	assert.Equal(t, []string{
		"include/engine.h",
		"main.cpp",
		"src/deep/node.cpp",
	}, toSlash(rel))
}

func TestWalkCustomSuffixesAndExcludes(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.mm":             "",
		"b.cpp":            "",
		"third_party/c.mm": "",
	})

	files, err := Walk(root, []string{".mm"}, []string{"third_party"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mm"}, RelativeTo(root, files))
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), DefaultSuffixes, nil)
	require.Error(t, err)
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err = ResolveRoot("")
	require.NoError(t, err)
	assert.Equal(t, wd, got)

	_, err = ResolveRoot(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "f.cpp")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = ResolveRoot(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestNormalizeSuffixes(t *testing.T) {
	assert.Equal(t, []string{".cpp", ".h", ".mm"}, NormalizeSuffixes([]string{"cpp", ".h", " mm ", ""}))
}

func TestHasSuffix(t *testing.T) {
	assert.True(t, HasSuffix("node.cpp", DefaultSuffixes))
	assert.True(t, HasSuffix("node.h", DefaultSuffixes))
	assert.False(t, HasSuffix("node.hpp", DefaultSuffixes))
	assert.False(t, HasSuffix("cpp", DefaultSuffixes))
}

func TestWriteFileKeepMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.h")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteFileKeepMode(path, []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Error(t, WriteFileKeepMode(filepath.Join(t.TempDir(), "missing.h"), nil))
}

func toSlash(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}
