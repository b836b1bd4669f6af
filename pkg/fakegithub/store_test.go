package fakegithub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Expected ids below come from `git write-tree` / `git ls-tree -r -t` on the
// same files.
var sampleFiles = map[string]string{
	"a.txt":         "hello\n",
	"src/main.go":   "package main\n",
	"src/sub/x.txt": "x",
	"src-file":      "y",
}

const (
	sampleCommit = "1111111111111111111111111111111111111111"
	sampleRoot   = "d28eb1602137bfba048eb764a41a07a5eebc76ea"
	sampleSrc    = "bdb8e01556a72ddb0ffed14eee63920bc0f6ed8e"
)

func addCommit(t *testing.T, s *Store, repo, sha string, files map[string]string) string {
	t.Helper()
	root, err := s.AddCommit("octo", repo, sha, files)
	require.NoError(t, err)
	return root
}

func paths(entries []TreeEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestBlobSHA(t *testing.T) {
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", BlobSHA(""))
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", BlobSHA("hello\n"))
}

func TestAddCommit_TreeSHAMatchesGit(t *testing.T) {
	s := NewStore()
	root := addCommit(t, s, "repo", sampleCommit, sampleFiles)
	assert.Equal(t, sampleRoot, root)
}

func TestAddCommit_EmptyTree(t *testing.T) {
	s := NewStore()
	root := addCommit(t, s, "repo", sampleCommit, nil)
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", root)

	tree, ok := s.Tree("octo", "repo", sampleCommit, true)
	require.True(t, ok)
	assert.Empty(t, tree.Entries)
}

func TestTree_RecursiveGitOrder(t *testing.T) {
	s := NewStore()
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	tree, ok := s.Tree("octo", "repo", sampleCommit, true)
	require.True(t, ok)
	assert.Equal(t, sampleRoot, tree.SHA)
	assert.False(t, tree.Truncated)
	assert.Equal(t, []string{"a.txt", "src-file", "src", "src/main.go", "src/sub", "src/sub/x.txt"}, paths(tree.Entries))

	byPath := map[string]TreeEntry{}
	for _, e := range tree.Entries {
		byPath[e.Path] = e
	}
	assert.Equal(t, "tree", byPath["src"].Type)
	assert.Equal(t, sampleSrc, byPath["src"].SHA)
	assert.Equal(t, modeTree, byPath["src"].Mode)
	assert.Nil(t, byPath["src"].Size)
	assert.Equal(t, "blob", byPath["src/sub/x.txt"].Type)
	assert.Equal(t, "c1b0730e0133447badcfd47fd144e254807b06e1", byPath["src/sub/x.txt"].SHA)
	require.NotNil(t, byPath["a.txt"].Size)
	assert.Equal(t, 6, *byPath["a.txt"].Size)
}

func TestTree_NonRecursive(t *testing.T) {
	s := NewStore()
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	tree, ok := s.Tree("octo", "repo", sampleCommit, false)
	require.True(t, ok)
	assert.Equal(t, []string{"a.txt", "src-file", "src"}, paths(tree.Entries))
}

func TestTree_BySubtreeSHA(t *testing.T) {
	s := NewStore()
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	tree, ok := s.Tree("octo", "repo", sampleSrc, true)
	require.True(t, ok)
	assert.Equal(t, []string{"main.go", "sub", "sub/x.txt"}, paths(tree.Entries))
}

func TestTree_Truncated(t *testing.T) {
	s := NewStore()
	s.TreeLimit = 2
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	tree, ok := s.Tree("octo", "repo", sampleCommit, true)
	require.True(t, ok)
	assert.True(t, tree.Truncated)
	assert.Len(t, tree.Entries, 2)
}

func TestTree_Unknown(t *testing.T) {
	s := NewStore()
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	_, ok := s.Tree("octo", "repo", "2222222222222222222222222222222222222222", true)
	assert.False(t, ok)
	_, ok = s.Tree("octo", "other", sampleCommit, true)
	assert.False(t, ok)
}

func TestBlob(t *testing.T) {
	s := NewStore()
	addCommit(t, s, "repo", sampleCommit, sampleFiles)

	content, ok := s.Blob("octo", "repo", "CE013625030BA8DBA906F756967F9E9CA394464A")
	require.True(t, ok)
	assert.Equal(t, "hello\n", content)

	_, ok = s.Blob("octo", "repo", BlobSHA("nope"))
	assert.False(t, ok)
}

func TestRepos(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Repos())
	addCommit(t, s, "a", sampleCommit, sampleFiles)
	addCommit(t, s, "b", sampleCommit, sampleFiles)
	addCommit(t, s, "b", "3333333333333333333333333333333333333333", nil)
	assert.Equal(t, 2, s.Repos())
}

func TestAddCommit_SameInputSameTree(t *testing.T) {
	want := addCommit(t, NewStore(), "repo", sampleCommit, sampleFiles)
	for range 50 {
		assert.Equal(t, want, addCommit(t, NewStore(), "repo", sampleCommit, sampleFiles))
	}
}

func TestAddCommit_FileDirectoryConflict(t *testing.T) {
	files := map[string]string{"a": "x", "a/b": "y"}
	for range 50 {
		s := NewStore()
		_, err := s.AddCommit("octo", "repo", sampleCommit, files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"a"`)

		_, ok := s.Tree("octo", "repo", sampleCommit, true)
		assert.False(t, ok, "failed commit must not be stored")
	}

	_, err := NewStore().AddCommit("octo", "repo", sampleCommit, map[string]string{"d/e": "x", "d/e/f": "y"})
	require.Error(t, err)
}

func TestAddCommit_DuplicatePath(t *testing.T) {
	_, err := NewStore().AddCommit("octo", "repo", sampleCommit, map[string]string{"a.txt": "x", "/a.txt": "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestAddCommit_InvalidSegments(t *testing.T) {
	for _, p := range []string{"", "a//b", "a/", "./a", "a/../b", ".git/config"} {
		_, err := NewStore().AddCommit("octo", "repo", sampleCommit, map[string]string{p: "x"})
		assert.Error(t, err, "path %q", p)
	}
}
