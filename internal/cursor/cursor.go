// Package cursor holds the opaque pagination cursor and paging helpers
// shared by every FileStore backend.
package cursor

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sagarc03/lockbox"
)

// Encode encodes the last key of a page to an opaque cursor string.
func Encode(key string) string {
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// Decode decodes a pagination cursor back to the last key of the
// previous page. An empty cursor decodes to an empty key.
func Decode(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("decode cursor: %w: invalid encoding", lockbox.ErrInvalidInput)
	}

	if len(decoded) == 0 {
		return "", fmt.Errorf("decode cursor: %w: empty key", lockbox.ErrInvalidInput)
	}

	return string(decoded), nil
}

// EscapeLike escapes special LIKE characters (%, _, \) to prevent SQL injection.
func EscapeLike(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// Page trims keys fetched with limit+1 to one page and computes the cursor
// for the next page.
func Page(keys []string, limit int) lockbox.ListResult {
	if len(keys) > limit {
		keys = keys[:limit]
		return lockbox.ListResult{Keys: keys, NextCursor: Encode(keys[limit-1])}
	}
	return lockbox.ListResult{Keys: keys}
}
