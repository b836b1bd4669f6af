package github_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gogithub "github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	githubadapter "github.com/tilsley/treecat/apps/treecat/internal/adapters/github"
	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
	platformgithub "github.com/tilsley/treecat/apps/treecat/internal/platform/github"
	"github.com/tilsley/treecat/apps/treecat/internal/walker"
	"github.com/tilsley/treecat/pkg/fakegithub"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const commit = "de4d316bfe286862c52206cb99042563dcd7fd09"

func newAdapter(t *testing.T, s *fakegithub.Store) *githubadapter.Adapter {
	t.Helper()
	validator, err := fakegithub.NewValidator(fakegithub.OpenAPISpec)
	require.NoError(t, err)

	srv := httptest.NewServer(fakegithub.NewRouter(s, slog.New(slog.DiscardHandler), validator))
	t.Cleanup(srv.Close)

	gh, err := platformgithub.NewTokenClient("test-token", srv.URL)
	require.NoError(t, err)
	return githubadapter.New(gh)
}

func seeded(t *testing.T) *fakegithub.Store {
	t.Helper()
	s := fakegithub.NewStore()
	_, err := s.AddCommit("octo", "repo", commit, map[string]string{
		"README.md":        "# repo\n",
		"src/main.go":      "package main\n",
		"src/util/util.go": "package util\n",
	})
	require.NoError(t, err)
	return s
}

func TestAdapter_GetTreeRecursive(t *testing.T) {
	a := newAdapter(t, seeded(t))

	tree, err := a.GetTreeRecursive(context.Background(), "octo", "repo", commit)
	require.NoError(t, err)
	assert.False(t, tree.Truncated)

	var got []string
	for _, e := range tree.Entries {
		got = append(got, e.Type+":"+e.Path)
	}
	assert.Equal(t, []string{
		"blob:README.md",
		"tree:src",
		"blob:src/main.go",
		"tree:src/util",
		"blob:src/util/util.go",
	}, got)
	assert.Equal(t, fakegithub.BlobSHA("# repo\n"), tree.Entries[0].SHA)
	assert.Equal(t, len("# repo\n"), tree.Entries[0].Size)
}

func TestAdapter_GetTreeRecursive_Truncated(t *testing.T) {
	s := seeded(t)
	s.TreeLimit = 2
	a := newAdapter(t, s)

	tree, err := a.GetTreeRecursive(context.Background(), "octo", "repo", commit)
	require.NoError(t, err)
	assert.True(t, tree.Truncated)
	assert.Len(t, tree.Entries, 2)
}

func TestAdapter_GetTreeRecursive_NotFound(t *testing.T) {
	a := newAdapter(t, seeded(t))

	_, err := a.GetTreeRecursive(context.Background(), "octo", "missing", commit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get tree octo/missing@"+commit)

	var ghErr *gogithub.ErrorResponse
	require.ErrorAs(t, err, &ghErr)
	assert.Equal(t, 404, ghErr.Response.StatusCode)
}

func TestAdapter_GetBlob(t *testing.T) {
	a := newAdapter(t, seeded(t))
	sha := fakegithub.BlobSHA("package main\n")

	blob, err := a.GetBlob(context.Background(), "octo", "repo", sha)
	require.NoError(t, err)
	assert.Equal(t, sha, blob.SHA)
	assert.Equal(t, gitrepo.EncodingBase64, blob.Encoding)

	raw, err := walker.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(raw))
}

func TestAdapter_GetBlob_NotFound(t *testing.T) {
	a := newAdapter(t, seeded(t))

	_, err := a.GetBlob(context.Background(), "octo", "repo", fakegithub.BlobSHA("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get blob octo/repo@")
}

func TestAdapter_WalkEndToEnd(t *testing.T) {
	a := newAdapter(t, seeded(t))
	var out bytes.Buffer

	sum, err := walker.New(a, &out, nil, walker.OrderReverse).Run(context.Background(), walker.Target{
		Owner: "octo", Repo: "repo", CommitSHA: commit,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Blobs)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, "package util\n\npackage main\n\n# repo\n\n", out.String())
}
