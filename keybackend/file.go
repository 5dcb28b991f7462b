package keybackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// SigningKey is one HMAC secret and the id tokens refer to it by.
type SigningKey struct {
	KeyID  string `json:"key_id" mapstructure:"key_id"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// LoadKeysFromFile loads signing keys from a JSON file.
// The file should contain an array of keys:
//
//	[
//	  {"key_id": "2026-01", "secret": "c2VjcmV0LXRoYXQtaXMtbG9uZy1lbm91Z2g"},
//	  {"key_id": "2026-04", "secret": "another-secret-of-sufficient-length"}
//	]
//
// Entries with an empty id or secret are skipped.
// Returns a map of key id to secret.
func LoadKeysFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read keys file: %w", err)
	}

	var pairs []SigningKey
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse keys file: %w", err)
	}

	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.KeyID != "" && p.Secret != "" {
			keys[p.KeyID] = p.Secret
		}
	}

	return keys, nil
}
