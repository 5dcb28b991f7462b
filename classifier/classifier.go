// Package classifier inspects a request and decides whether it comes from a
// classified playback client. The decision, a header fingerprint and a
// freshly minted challenge token make up the lockbox.Verdict carried through
// the rest of the request.
package classifier

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sagarc03/lockbox"
)

type Classifier struct {
	detector           Detector
	tokens             *Tokens
	fingerprintHeaders []string
}

// New returns a Classifier. An empty fingerprintHeaders falls back to
// DefaultFingerprintHeaders.
func New(detector Detector, tokens *Tokens, fingerprintHeaders []string) *Classifier {
	if len(fingerprintHeaders) == 0 {
		fingerprintHeaders = DefaultFingerprintHeaders
	}
	return &Classifier{
		detector:           detector,
		tokens:             tokens,
		fingerprintHeaders: fingerprintHeaders,
	}
}

// Classify never fails the request. Detector errors, token errors and
// panics all yield the zero Verdict, which routes the request as a normal
// client.
func (c *Classifier) Classify(r *http.Request) (v lockbox.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("classifier panic, treating as normal client", "path", r.URL.Path, "panic", fmt.Sprint(rec))
			v = lockbox.Verdict{}
		}
	}()

	if c.detector == nil {
		return lockbox.Verdict{}
	}

	special, err := c.detector.Detect(r)
	if err != nil {
		slog.Warn("client detection failed, treating as normal client", "path", r.URL.Path, "error", err)
		return lockbox.Verdict{}
	}
	if !special {
		return lockbox.Verdict{}
	}

	fp := Fingerprint(r, c.fingerprintHeaders)

	token, _, err := c.tokens.Issue(KindChallenge, fp)
	if err != nil {
		slog.Error("issue challenge token failed, treating as normal client", "error", err)
		return lockbox.Verdict{}
	}

	return lockbox.Verdict{
		IsSpecialClient: true,
		Fingerprint:     fp,
		Token:           token,
	}
}
