package classifier

import (
	"net/http"
	"strings"
)

// Detector decides whether a request comes from a classified client.
// An error makes the classifier treat the request as a normal client.
type Detector interface {
	Detect(r *http.Request) (bool, error)
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(r *http.Request) (bool, error)

func (f DetectorFunc) Detect(r *http.Request) (bool, error) {
	return f(r)
}

// HeaderRules matches requests by configured user-agent substrings and
// required header names. Both lists must match when both are set. With no
// rules at all nothing is classified.
type HeaderRules struct {
	UserAgents      []string
	RequiredHeaders []string
}

func (h HeaderRules) Detect(r *http.Request) (bool, error) {
	if len(h.UserAgents) == 0 && len(h.RequiredHeaders) == 0 {
		return false, nil
	}

	if len(h.UserAgents) > 0 && !matchesUserAgent(r.UserAgent(), h.UserAgents) {
		return false, nil
	}

	for _, name := range h.RequiredHeaders {
		if r.Header.Get(name) == "" {
			return false, nil
		}
	}

	return true, nil
}

func matchesUserAgent(ua string, needles []string) bool {
	ua = strings.ToLower(ua)
	for _, n := range needles {
		if n != "" && strings.Contains(ua, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
