package gitrepo

import "context"

// Tree entry types as reported by the Git Data API.
const (
	TypeBlob   = "blob"
	TypeTree   = "tree"
	TypeCommit = "commit" // submodule
)

// Blob encodings as reported by the Git Data API.
const (
	EncodingBase64 = "base64"
	EncodingUTF8   = "utf-8"
)

// TreeEntry is a single path in a recursive tree listing.
type TreeEntry struct {
	Path string
	Mode string
	Type string // "blob", "tree" or "commit"
	SHA  string
	Size int
}

// Tree is the recursive listing of a commit. Entries keep the order the
// hosting provider returned them in.
type Tree struct {
	SHA       string
	Entries   []TreeEntry
	Truncated bool // listing exceeded the provider's limit and is incomplete
}

// Blob is the content object for a single file.
type Blob struct {
	SHA      string
	Size     int
	Content  string // transport-encoded, see Encoding
	Encoding string // "base64" or "utf-8"
}

// Client is the port the walker depends on to read git objects from a
// repository host.
type Client interface {
	GetTreeRecursive(ctx context.Context, owner, repo, sha string) (*Tree, error)
	GetBlob(ctx context.Context, owner, repo, sha string) (*Blob, error)
}
