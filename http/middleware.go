package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/lockbox"
)

// Response headers added to every classified response.
const (
	HeaderClient      = "X-Lockbox-Client"
	HeaderFingerprint = "X-Lockbox-Fingerprint"
)

// Classifier computes the verdict for one request.
type Classifier interface {
	Classify(r *http.Request) lockbox.Verdict
}

// Gate may answer a classified request before routing.
type Gate interface {
	Authenticate(r *http.Request, v lockbox.Verdict) http.Handler
}

type verdictKey struct{}

// WithVerdict returns a copy of ctx carrying v.
func WithVerdict(ctx context.Context, v lockbox.Verdict) context.Context {
	return context.WithValue(ctx, verdictKey{}, v)
}

// VerdictFromContext returns the verdict stored by ClassifyMiddleware, or
// the zero verdict.
func VerdictFromContext(ctx context.Context) lockbox.Verdict {
	v, _ := ctx.Value(verdictKey{}).(lockbox.Verdict)
	return v
}

// ClassifyMiddleware classifies each request exactly once and stores the
// verdict in the request context. Classified responses get the client and
// fingerprint headers.
func ClassifyMiddleware(c Classifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var v lockbox.Verdict
			if c != nil {
				v = c.Classify(r)
			}

			if v.IsSpecialClient {
				w.Header().Set(HeaderClient, lockbox.ClientClassified)
				w.Header().Set(HeaderFingerprint, v.Fingerprint)
			}

			next.ServeHTTP(w, r.WithContext(WithVerdict(r.Context(), v)))
		})
	}
}

// GateMiddleware runs the gate with the request's verdict. A non-nil
// handler from the gate answers the request and routing stops there.
func GateMiddleware(g Gate) func(http.Handler) http.Handler {
	if g == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if stop := g.Authenticate(r, VerdictFromContext(r.Context())); stop != nil {
				stop.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog logs one line per request after it completes.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"classified", ww.Header().Get(HeaderClient) == lockbox.ClientClassified,
		)
	})
}
