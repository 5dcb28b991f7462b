// Package authgate decides, for classified clients, whether a request may
// continue to routing or must be answered with a challenge first.
package authgate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sagarc03/lockbox"
)

// SessionVerifier checks a session token against the client fingerprint.
type SessionVerifier interface {
	VerifySession(token, fingerprint string) error
}

// LandingPaths are the landing page routes. They stay reachable without a
// session so a classified client sees the notice pointing it to the player
// page.
var LandingPaths = []string{"/", "/index.html"}

type Gate struct {
	sessions SessionVerifier
	scheme   string
	pagePath string
	open     map[string]bool
}

// New returns a Gate. scheme is the Authorization scheme classified clients
// present their session token with. pagePath, verifyPath and LandingPaths
// stay reachable without a session so a client can obtain one.
func New(sessions SessionVerifier, scheme, pagePath, verifyPath string) *Gate {
	open := map[string]bool{pagePath: true, verifyPath: true}
	for _, p := range LandingPaths {
		open[p] = true
	}
	return &Gate{
		sessions: sessions,
		scheme:   scheme,
		pagePath: pagePath,
		open:     open,
	}
}

// Authenticate returns nil when the request may continue, or a handler that
// writes the complete response otherwise. It never writes to w itself and
// keeps no state between calls.
func (g *Gate) Authenticate(r *http.Request, v lockbox.Verdict) http.Handler {
	if !v.IsSpecialClient {
		return nil
	}

	path := r.URL.Path
	if g.open[path] {
		return nil
	}

	if token := Credential(r, g.scheme); token != "" {
		if err := g.sessions.VerifySession(token, v.Fingerprint); err == nil {
			return nil
		}
	}

	if strings.HasPrefix(path, "/api/") {
		return g.challenge(v)
	}

	return http.RedirectHandler(g.pagePath, http.StatusFound)
}

func (g *Gate) challenge(v lockbox.Verdict) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`%s challenge="%s"`, g.scheme, v.Token))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "session token required",
			"code":  "unauthorized",
		})
	})
}

// HasScheme reports whether the Authorization header uses scheme,
// compared case-insensitively.
func HasScheme(r *http.Request, scheme string) bool {
	_, ok := schemeToken(r.Header.Get("Authorization"), scheme)
	return ok
}

// HeaderToken returns the token of "Authorization: <scheme> <token>", or
// "" when the header is absent or uses another scheme.
func HeaderToken(r *http.Request, scheme string) string {
	token, _ := schemeToken(r.Header.Get("Authorization"), scheme)
	return token
}

// Credential extracts the session token from "Authorization: <scheme> <token>"
// or, failing that, from the "token" query parameter.
func Credential(r *http.Request, scheme string) string {
	if token := HeaderToken(r, scheme); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func schemeToken(header, scheme string) (string, bool) {
	if scheme == "" {
		return "", false
	}
	name, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(name, scheme) {
		return "", false
	}
	if !found {
		return "", true
	}
	return strings.TrimSpace(rest), true
}
