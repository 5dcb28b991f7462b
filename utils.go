package lockbox

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFilenameBytes bounds the length of a filename.
const MaxFilenameBytes = 255

// IsValidFilename validates that a filename can be stored and addressed by
// the download route. It checks that the name:
//   - is not empty, "." or ".."
//   - is at most MaxFilenameBytes long
//   - does not contain "/" or "\"
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Returns true if the filename is valid, false otherwise.
func IsValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > MaxFilenameBytes {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f || (unicode.IsSpace(r) && r != ' ') {
			return false
		}
	}

	return true
}

// ItemKey returns the store key for a filename.
func ItemKey(filename string) string {
	return KeyPrefix + filename
}

// FilenameFromKey strips the item namespace from a store key.
// The second return value is false for keys outside the namespace.
func FilenameFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return key[len(KeyPrefix):], true
}
