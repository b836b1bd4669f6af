// Package fakegithub is an in-memory fake of the GitHub Git Data API (trees
// and blobs). It backs the mock-github app and the adapter tests.
package fakegithub

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	modeFile = "100644"
	modeTree = "040000"
)

// TreeEntry is a GitHub-shaped entry in a tree response.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size *int   `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Tree is a GitHub-shaped tree response.
type Tree struct {
	SHA       string      `json:"sha"`
	URL       string      `json:"url,omitempty"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Blob is a GitHub-shaped blob response.
type Blob struct {
	SHA      string `json:"sha"`
	NodeID   string `json:"node_id,omitempty"`
	Size     int    `json:"size"`
	URL      string `json:"url,omitempty"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// node is a directory or file while a commit's tree is being built.
type node struct {
	name     string
	children map[string]*node // nil for files
	content  string
	sha      string
}

func (n *node) isDir() bool { return n.children != nil }

// repoObjects holds the object database for one repository.
type repoObjects struct {
	commits map[string]string     // commit sha -> root tree sha
	trees   map[string][]TreeEntry // tree sha -> recursive listing relative to that tree
	blobs   map[string]string     // blob sha -> content
}

// Store holds git objects keyed by "owner/repo". TreeLimit caps the number of
// entries in a recursive listing; longer listings are cut and marked
// truncated. Zero means no limit.
type Store struct {
	mu        sync.RWMutex
	repos     map[string]*repoObjects
	TreeLimit int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{repos: make(map[string]*repoObjects)}
}

// AddCommit records files (path -> content) as the snapshot for commitSHA and
// returns the root tree sha. It fails if a path is invalid or if one file's
// path is a directory of another.
func (s *Store) AddCommit(owner, repo, commitSHA string, files map[string]string) (string, error) {
	root, err := buildTree(files)
	if err != nil {
		return "", err
	}
	hashTree(root)

	s.mu.Lock()
	defer s.mu.Unlock()

	objs := s.repo(owner, repo)
	objs.commits[strings.ToLower(commitSHA)] = root.sha
	indexTree(objs, root)
	return root.sha, nil
}

// Repos returns the number of repositories that hold at least one commit.
func (s *Store) Repos() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.repos)
}

// Tree returns the listing for sha, which may name a commit or a tree. When
// recursive is false only the immediate children are listed.
func (s *Store) Tree(owner, repo, sha string, recursive bool) (*Tree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objs, ok := s.repos[owner+"/"+repo]
	if !ok {
		return nil, false
	}
	sha = strings.ToLower(sha)
	if root, ok := objs.commits[sha]; ok {
		sha = root
	}
	all, ok := objs.trees[sha]
	if !ok {
		return nil, false
	}

	entries := make([]TreeEntry, 0, len(all))
	for _, e := range all {
		if !recursive && strings.Contains(e.Path, "/") {
			continue
		}
		entries = append(entries, e)
	}

	tree := &Tree{SHA: sha, Entries: entries}
	if recursive && s.TreeLimit > 0 && len(entries) > s.TreeLimit {
		tree.Entries = entries[:s.TreeLimit]
		tree.Truncated = true
	}
	return tree, true
}

// Blob returns the raw content stored under sha.
func (s *Store) Blob(owner, repo, sha string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objs, ok := s.repos[owner+"/"+repo]
	if !ok {
		return "", false
	}
	content, ok := objs.blobs[strings.ToLower(sha)]
	return content, ok
}

func (s *Store) repo(owner, repo string) *repoObjects {
	key := owner + "/" + repo
	objs, ok := s.repos[key]
	if !ok {
		objs = &repoObjects{
			commits: make(map[string]string),
			trees:   make(map[string][]TreeEntry),
			blobs:   make(map[string]string),
		}
		s.repos[key] = objs
	}
	return objs
}

// ValidatePaths reports the first problem buildTree would hit for files.
func ValidatePaths(files map[string]string) error {
	_, err := buildTree(files)
	return err
}

// buildTree assembles files into a directory tree. Paths are visited in sorted
// order so the reported error does not depend on map iteration.
func buildTree(files map[string]string) (*node, error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	root := &node{children: make(map[string]*node)}
	for _, p := range paths {
		parts, err := splitPath(p)
		if err != nil {
			return nil, err
		}
		if err := insert(root, parts, files[p]); err != nil {
			return nil, fmt.Errorf("path %q: %w", p, err)
		}
	}
	return root, nil
}

func splitPath(p string) ([]string, error) {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for _, name := range parts {
		switch name {
		case "", ".", "..", ".git":
			return nil, fmt.Errorf("path %q: invalid segment %q", p, name)
		}
	}
	return parts, nil
}

func insert(dir *node, parts []string, content string) error {
	name := parts[0]
	child, exists := dir.children[name]
	if len(parts) == 1 {
		switch {
		case exists && child.isDir():
			return fmt.Errorf("file %q is also a directory", name)
		case exists:
			return fmt.Errorf("duplicate file %q", name)
		}
		dir.children[name] = &node{name: name, content: content}
		return nil
	}
	if !exists {
		child = &node{name: name, children: make(map[string]*node)}
		dir.children[name] = child
	} else if !child.isDir() {
		return fmt.Errorf("directory %q is also a file", name)
	}
	return insert(child, parts[1:], content)
}

// sortedChildren orders children the way git orders tree entries: by name,
// with directories compared as if their name ended in "/".
func sortedChildren(dir *node) []*node {
	out := make([]*node, 0, len(dir.children))
	for _, c := range dir.children {
		out = append(out, c)
	}
	sortKey := func(n *node) string {
		if n.isDir() {
			return n.name + "/"
		}
		return n.name
	}
	sort.Slice(out, func(i, j int) bool { return sortKey(out[i]) < sortKey(out[j]) })
	return out
}

// hashTree fills in sha for n and all of its descendants using git's object
// encoding, so ids match what `git hash-object` would report.
func hashTree(n *node) {
	if !n.isDir() {
		n.sha = BlobSHA(n.content)
		return
	}
	tree := &object.Tree{}
	for _, c := range sortedChildren(n) {
		hashTree(c)
		mode := filemode.Regular
		if c.isDir() {
			mode = filemode.Dir
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: c.name,
			Mode: mode,
			Hash: plumbing.NewHash(c.sha),
		})
	}
	obj := &plumbing.MemoryObject{}
	if err := tree.Encode(obj); err != nil {
		// MemoryObject writes cannot fail.
		panic(err)
	}
	n.sha = obj.Hash().String()
}

// indexTree records the listing of dir and every subdirectory, plus every blob.
func indexTree(objs *repoObjects, dir *node) []TreeEntry {
	var entries []TreeEntry
	for _, c := range sortedChildren(dir) {
		if !c.isDir() {
			objs.blobs[c.sha] = c.content
			size := len(c.content)
			entries = append(entries, TreeEntry{Path: c.name, Mode: modeFile, Type: "blob", SHA: c.sha, Size: &size})
			continue
		}
		entries = append(entries, TreeEntry{Path: c.name, Mode: modeTree, Type: "tree", SHA: c.sha})
		for _, sub := range indexTree(objs, c) {
			sub.Path = c.name + "/" + sub.Path
			entries = append(entries, sub)
		}
	}
	objs.trees[dir.sha] = entries
	return entries
}

// BlobSHA returns the git object id of a blob holding content.
func BlobSHA(content string) string {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(content)).String()
}
