package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given relative files (with trivial content) under a
// fresh temp directory and returns its path.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	return root
}

func TestFindMutualFiles_Intersection(t *testing.T) {
	tree1 := writeTree(t, "a/one.root", "a/two.root", "b/three.root", "a/notes.txt")
	tree2 := writeTree(t, "a/one.root", "b/three.root", "c/four.root")

	files, err := FindMutualFiles([]string{tree1, tree2}, "*.root", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one.root", "b/three.root"}, files)
}

func TestFindMutualFiles_PatternWithDirectoryComponents(t *testing.T) {
	tree1 := writeTree(t, "run/tf1/sgn_1.log", "run/tf2/sgn_2.log", "run/tf1/bkg_1.log")
	tree2 := writeTree(t, "run/tf1/sgn_1.log", "run/tf2/sgn_2.log")

	files, err := FindMutualFiles([]string{tree1, tree2}, "tf*/sgn*.log", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"run/tf1/sgn_1.log", "run/tf2/sgn_2.log"}, files)
}

func TestFindMutualFiles_GrepKeepsMatchingPathsOnce(t *testing.T) {
	tree1 := writeTree(t, "sgn_tf1.log", "sgn_tf2.log", "bkg_tf1.log")
	tree2 := writeTree(t, "sgn_tf1.log", "sgn_tf2.log", "bkg_tf1.log")

	// sgn_tf1.log matches both grep terms but must appear exactly once.
	files, err := FindMutualFiles([]string{tree1, tree2}, "*.log", []string{"sgn", "tf1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bkg_tf1.log", "sgn_tf1.log", "sgn_tf2.log"}, files)
}

func TestFindMutualFiles_NoMatchesIsEmptyNotError(t *testing.T) {
	tree1 := writeTree(t, "a.txt")
	tree2 := writeTree(t, "b.txt")

	files, err := FindMutualFiles([]string{tree1, tree2}, "*.root", nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindMutualFiles_MissingTreeIsEmpty(t *testing.T) {
	tree1 := writeTree(t, "a.root")

	files, err := FindMutualFiles([]string{tree1, filepath.Join(t.TempDir(), "gone")}, "*.root", nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindMutualFiles_InvalidPattern(t *testing.T) {
	_, err := FindMutualFiles([]string{t.TempDir()}, "[", nil)
	assert.Error(t, err)
}

func TestMatchesPattern_TailComponentsOnly(t *testing.T) {
	assert.True(t, matchesPattern("deep/nested/tf1/sgn.log", "tf*/sgn*.log"))
	assert.True(t, matchesPattern("tf1/sgn.log", "tf*/sgn*.log"))
	assert.False(t, matchesPattern("sgn.log", "tf*/sgn*.log"))
	assert.False(t, matchesPattern("tf1/other.log", "tf*/sgn*.log"))
}
