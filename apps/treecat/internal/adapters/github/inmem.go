package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
)

// InMem is an in-memory gitrepo.Client for unit tests.
type InMem struct {
	mu        sync.Mutex
	trees     map[string]*gitrepo.Tree // "owner/repo@sha" -> tree
	blobs     map[string]*gitrepo.Blob // "owner/repo@sha" -> blob
	blobErrs  map[string]error         // "owner/repo@sha" -> injected failure
	blobCalls []string                 // blob SHAs in request order
}

// NewInMem creates an empty InMem client.
func NewInMem() *InMem {
	return &InMem{
		trees:    make(map[string]*gitrepo.Tree),
		blobs:    make(map[string]*gitrepo.Blob),
		blobErrs: make(map[string]error),
	}
}

func objectKey(owner, repo, sha string) string {
	return owner + "/" + repo + "@" + sha
}

// SetTree seeds the recursive tree returned for commit sha.
func (m *InMem) SetTree(owner, repo, sha string, entries ...gitrepo.TreeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[objectKey(owner, repo, sha)] = &gitrepo.Tree{SHA: sha, Entries: entries}
}

// SetTruncated marks a seeded tree as truncated.
func (m *InMem) SetTruncated(owner, repo, sha string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trees[objectKey(owner, repo, sha)]; ok {
		t.Truncated = true
	}
}

// SetBlob seeds a blob holding content, base64 encoded the way the API
// returns it.
func (m *InMem) SetBlob(owner, repo, sha, content string) {
	m.SetRawBlob(owner, repo, &gitrepo.Blob{
		SHA:      sha,
		Size:     len(content),
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Encoding: gitrepo.EncodingBase64,
	})
}

// SetRawBlob seeds a blob exactly as given.
func (m *InMem) SetRawBlob(owner, repo string, blob *gitrepo.Blob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[objectKey(owner, repo, blob.SHA)] = blob
}

// FailBlob makes GetBlob return err for sha.
func (m *InMem) FailBlob(owner, repo, sha string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobErrs[objectKey(owner, repo, sha)] = err
}

// BlobCalls returns the SHAs passed to GetBlob, in call order.
func (m *InMem) BlobCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.blobCalls))
	copy(out, m.blobCalls)
	return out
}

// GetTreeRecursive returns the seeded tree, or an error if none was seeded.
func (m *InMem) GetTreeRecursive(_ context.Context, owner, repo, sha string) (*gitrepo.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trees[objectKey(owner, repo, sha)]
	if !ok {
		return nil, fmt.Errorf("tree not found: %s", objectKey(owner, repo, sha))
	}
	out := *t
	out.Entries = append([]gitrepo.TreeEntry(nil), t.Entries...)
	return &out, nil
}

// GetBlob records the call and returns the seeded blob or injected error.
func (m *InMem) GetBlob(_ context.Context, owner, repo, sha string) (*gitrepo.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobCalls = append(m.blobCalls, sha)
	key := objectKey(owner, repo, sha)
	if err, ok := m.blobErrs[key]; ok {
		return nil, err
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", key)
	}
	out := *b
	return &out, nil
}
