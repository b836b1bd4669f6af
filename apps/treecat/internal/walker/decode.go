package walker

import (
	"encoding/base64"
	"fmt"

	"github.com/tilsley/treecat/apps/treecat/internal/gitrepo"
)

// Decode returns the raw bytes of blob. Base64 content may contain the line
// breaks GitHub inserts every 60 characters; the decoder skips them.
func Decode(blob *gitrepo.Blob) ([]byte, error) {
	switch blob.Encoding {
	case gitrepo.EncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(blob.Content)
		if err != nil {
			return nil, fmt.Errorf("decode base64 blob %s: %w", blob.SHA, err)
		}
		return raw, nil
	case gitrepo.EncodingUTF8, "":
		return []byte(blob.Content), nil
	default:
		return nil, fmt.Errorf("blob %s: unsupported encoding %q", blob.SHA, blob.Encoding)
	}
}
