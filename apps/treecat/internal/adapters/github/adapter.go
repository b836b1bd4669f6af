// Package github implements the gitrepo.Client port using the official
// go-github library. Wire it up with an authenticated *github.Client from
// apps/treecat/internal/platform/github.
package github

import (
	"context"
	"fmt"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
)

// Adapter wraps a go-github client and implements gitrepo.Client through the
// Git Data API (trees and blobs).
type Adapter struct {
	gh *gogithub.Client
}

// New creates an Adapter from an authenticated *github.Client.
func New(gh *gogithub.Client) *Adapter {
	return &Adapter{gh: gh}
}

// GetTreeRecursive fetches the full recursive tree for sha. A commit SHA is
// accepted and resolved to its root tree by the API.
func (a *Adapter) GetTreeRecursive(ctx context.Context, owner, repo, sha string) (*gitrepo.Tree, error) {
	tree, _, err := a.gh.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, repo, sha, err)
	}

	entries := make([]gitrepo.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, gitrepo.TreeEntry{
			Path: e.GetPath(),
			Mode: e.GetMode(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
		})
	}

	return &gitrepo.Tree{
		SHA:       tree.GetSHA(),
		Entries:   entries,
		Truncated: tree.GetTruncated(),
	}, nil
}

// GetBlob fetches a single blob. Content is returned as the API encoded it.
func (a *Adapter) GetBlob(ctx context.Context, owner, repo, sha string) (*gitrepo.Blob, error) {
	blob, _, err := a.gh.Git.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, fmt.Errorf("get blob %s/%s@%s: %w", owner, repo, sha, err)
	}
	return &gitrepo.Blob{
		SHA:      blob.GetSHA(),
		Size:     blob.GetSize(),
		Content:  blob.GetContent(),
		Encoding: blob.GetEncoding(),
	}, nil
}
