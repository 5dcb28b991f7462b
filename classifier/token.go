package classifier

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Token kinds. A challenge token is handed out on every classified request;
// exchanging it at the verify endpoint yields a longer-lived session token.
const (
	KindChallenge = "challenge"
	KindSession   = "session"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	DefaultSessionTTL   = 24 * time.Hour
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrFingerprintMismatch = errors.New("token issued to a different client")
)

// KeyRing supplies HMAC secrets by key id.
type KeyRing interface {
	Active() (keyID string, secret []byte)
	Lookup(keyID string) ([]byte, error)
}

// Claims is the signed token payload.
type Claims struct {
	Kind        string `json:"k"`
	KeyID       string `json:"kid"`
	Fingerprint string `json:"fp"`
	Nonce       string `json:"n"`
	ExpiresAt   int64  `json:"exp"` // unix seconds
}

// Tokens issues and verifies stateless HMAC tokens of the form
// base64url(payload) "." base64url(HMAC-SHA256(secret, payload)).
type Tokens struct {
	keys         KeyRing
	challengeTTL time.Duration
	sessionTTL   time.Duration
	now          func() time.Time
}

func NewTokens(keys KeyRing, challengeTTL, sessionTTL time.Duration) *Tokens {
	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Tokens{
		keys:         keys,
		challengeTTL: challengeTTL,
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

// WithClock returns a copy of t that reads the time from now.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	c := *t
	c.now = now
	return &c
}

// Issue mints a token of kind bound to fingerprint and returns it with its expiry.
func (t *Tokens) Issue(kind, fingerprint string) (string, time.Time, error) {
	ttl := t.challengeTTL
	if kind == KindSession {
		ttl = t.sessionTTL
	}
	expiresAt := t.now().Add(ttl).Truncate(time.Second)

	keyID, secret := t.keys.Active()
	payload, err := json.Marshal(Claims{
		Kind:        kind,
		KeyID:       keyID,
		Fingerprint: fingerprint,
		Nonce:       uuid.NewString(),
		ExpiresAt:   expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}

	enc := base64.RawURLEncoding
	return enc.EncodeToString(payload) + "." + enc.EncodeToString(sign(secret, payload)), expiresAt, nil
}

// Verify checks signature, kind, expiry and fingerprint binding.
func (t *Tokens) Verify(token, kind, fingerprint string) (Claims, error) {
	var c Claims

	payloadPart, sigPart, ok := strings.Cut(token, ".")
	if !ok || payloadPart == "" || sigPart == "" {
		return c, ErrInvalidToken
	}

	enc := base64.RawURLEncoding
	payload, err := enc.DecodeString(payloadPart)
	if err != nil {
		return c, ErrInvalidToken
	}
	sig, err := enc.DecodeString(sigPart)
	if err != nil {
		return c, ErrInvalidToken
	}

	if err := json.Unmarshal(payload, &c); err != nil {
		return Claims{}, ErrInvalidToken
	}

	secret, err := t.keys.Lookup(c.KeyID)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !hmac.Equal(sig, sign(secret, payload)) {
		return Claims{}, ErrInvalidToken
	}

	if c.Kind != kind || c.ExpiresAt == 0 {
		return Claims{}, ErrInvalidToken
	}

	if t.now().Unix() > c.ExpiresAt {
		return Claims{}, ErrTokenExpired
	}

	if !hmac.Equal([]byte(c.Fingerprint), []byte(fingerprint)) {
		return Claims{}, ErrFingerprintMismatch
	}

	return c, nil
}

// VerifySession reports whether token is a live session token for fingerprint.
func (t *Tokens) VerifySession(token, fingerprint string) error {
	_, err := t.Verify(token, KindSession, fingerprint)
	return err
}

func sign(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}
