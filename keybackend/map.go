// Package keybackend loads the HMAC keys used to sign client tokens.
// Several keys can be configured at once so that tokens signed with a
// retired key keep verifying while new tokens use the active one.
package keybackend

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// MinSecretBytes is the shortest secret accepted for signing.
const MinSecretBytes = 16

// MapKeyRing holds signing keys in memory, keyed by id.
type MapKeyRing struct {
	keys   map[string][]byte
	active string
}

// NewMapKeyRing creates a key ring from an id to secret mapping.
// active names the key new tokens are signed with; it may be empty when
// exactly one key is given.
func NewMapKeyRing(keys map[string]string, active string) (*MapKeyRing, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	ring := &MapKeyRing{keys: make(map[string][]byte, len(keys))}
	for id, secret := range keys {
		if len(secret) < MinSecretBytes {
			return nil, fmt.Errorf("signing key %q: secret must be at least %d bytes", id, MinSecretBytes)
		}
		ring.keys[id] = []byte(secret)
	}

	if active == "" {
		if len(keys) > 1 {
			return nil, fmt.Errorf("active key id is required when %d keys are configured", len(keys))
		}
		for id := range keys {
			active = id
		}
	}

	if _, ok := ring.keys[active]; !ok {
		return nil, fmt.Errorf("active key %q: %w", active, ErrKeyNotFound)
	}
	ring.active = active

	return ring, nil
}

// Ephemeral returns a key ring with a single random key. Tokens it signs
// stop verifying when the process exits.
func Ephemeral() (*MapKeyRing, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	id := "ephemeral-" + uuid.NewString()
	return &MapKeyRing{keys: map[string][]byte{id: secret}, active: id}, nil
}

// Active returns the id and secret new tokens are signed with.
func (r *MapKeyRing) Active() (string, []byte) {
	return r.active, r.keys[r.active]
}

// Lookup retrieves the secret for keyID.
func (r *MapKeyRing) Lookup(keyID string) ([]byte, error) {
	secret, found := r.keys[keyID]
	if !found {
		return nil, fmt.Errorf("lookup %q: %w", keyID, ErrKeyNotFound)
	}
	return secret, nil
}
