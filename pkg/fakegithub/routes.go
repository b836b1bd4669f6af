package fakegithub

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// base64LineLen matches the line width GitHub uses for blob content.
const base64LineLen = 60

// NewRouter returns a gin engine serving the Git Data API read endpoints
// from s. middleware runs before every route.
func NewRouter(s *Store, log *slog.Logger, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)
	registerRoutes(r, s, log)
	return r
}

func registerRoutes(r *gin.Engine, s *Store, log *slog.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Mirrors GET /repos/:owner/:repo/git/trees/:tree_sha. Any non-empty
	// recursive value requests the full listing, like GitHub.
	r.GET("/repos/:owner/:repo/git/trees/:sha", func(c *gin.Context) {
		owner, repo, sha := c.Param("owner"), c.Param("repo"), c.Param("sha")
		recursive := c.Query("recursive") != ""

		tree, ok := s.Tree(owner, repo, sha, recursive)
		if !ok {
			notFound(c, "tree %s not found in %s/%s", sha, owner, repo)
			return
		}

		base := apiBase(c, owner, repo)
		tree.URL = base + "/git/trees/" + tree.SHA
		for i := range tree.Entries {
			e := &tree.Entries[i]
			switch e.Type {
			case "blob":
				e.URL = base + "/git/blobs/" + e.SHA
			case "tree":
				e.URL = base + "/git/trees/" + e.SHA
			}
		}

		log.Debug("tree served", "owner", owner, "repo", repo, "sha", sha,
			"recursive", recursive, "entries", len(tree.Entries), "truncated", tree.Truncated)
		c.JSON(http.StatusOK, tree)
	})

	// Mirrors GET /repos/:owner/:repo/git/blobs/:file_sha.
	r.GET("/repos/:owner/:repo/git/blobs/:sha", func(c *gin.Context) {
		owner, repo, sha := c.Param("owner"), c.Param("repo"), strings.ToLower(c.Param("sha"))

		content, ok := s.Blob(owner, repo, sha)
		if !ok {
			notFound(c, "blob %s not found in %s/%s", sha, owner, repo)
			return
		}

		log.Debug("blob served", "owner", owner, "repo", repo, "sha", sha, "size", len(content))
		c.JSON(http.StatusOK, Blob{
			SHA:      sha,
			Size:     len(content),
			URL:      apiBase(c, owner, repo) + "/git/blobs/" + sha,
			Content:  EncodeContent([]byte(content)),
			Encoding: "base64",
		})
	})
}

// EncodeContent base64-encodes b wrapped at 60 columns with a trailing
// newline, as GitHub returns blob content.
func EncodeContent(b []byte) string {
	enc := base64.StdEncoding.EncodeToString(b)
	var sb strings.Builder
	for len(enc) > base64LineLen {
		sb.WriteString(enc[:base64LineLen])
		sb.WriteByte('\n')
		enc = enc[base64LineLen:]
	}
	sb.WriteString(enc)
	sb.WriteByte('\n')
	return sb.String()
}

func apiBase(c *gin.Context, owner, repo string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/repos/%s/%s", scheme, c.Request.Host, owner, repo)
}

func notFound(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusNotFound, gin.H{
		"message":           fmt.Sprintf(format, args...),
		"documentation_url": "https://docs.github.com/rest/git",
	})
}
