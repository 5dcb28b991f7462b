package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
)

// DefaultFingerprintHeaders is used when no fingerprint headers are configured.
var DefaultFingerprintHeaders = []string{"User-Agent", "Accept-Language"}

// Fingerprint hashes the named request headers into a stable hex id.
// Header names are canonicalised and sorted, so the order they are
// configured in does not matter. Absent headers contribute an empty value.
func Fingerprint(r *http.Request, headers []string) string {
	names := make([]string, 0, len(headers))
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		name := http.CanonicalHeaderKey(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		values := r.Header.Values(name)
		trimmed := make([]string, len(values))
		for i, v := range values {
			trimmed[i] = strings.TrimSpace(v)
		}

		h.Write([]byte(name))
		h.Write([]byte{':'})
		h.Write([]byte(strings.Join(trimmed, ",")))
		h.Write([]byte{'\n'})
	}

	return hex.EncodeToString(h.Sum(nil))
}
