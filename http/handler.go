package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/authgate"
	"github.com/sagarc03/lockbox/classifier"
)

const (
	defaultSegment        = "player"
	defaultScheme         = "Playback"
	defaultMaxUploadBytes = 1 << 20

	playlistContentType = "audio/x-mpegurl"
	playlistHeader      = "#EXTM3U"
)

type Service interface {
	Upload(ctx context.Context, req lockbox.UploadRequest) (lockbox.UploadResult, error)
	Read(ctx context.Context, filename, password string) (lockbox.Item, error)
	Search(ctx context.Context) ([]string, error)
}

// Tokens issues and verifies classified-client tokens.
type Tokens interface {
	Issue(kind, fingerprint string) (string, time.Time, error)
	Verify(token, kind, fingerprint string) (classifier.Claims, error)
	VerifySession(token, fingerprint string) error
}

// ClientAuth groups the collaborators of the classified-client path.
// A nil Classifier treats every request as a normal client.
type ClientAuth struct {
	Classifier Classifier
	Gate       Gate
	Tokens     Tokens
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	ClassifiedSegment string // path segment of the classified page and API (default: "player")
	Scheme            string // Authorization scheme for classified sessions (default: "Playback")
	PublicURL         string // base URL used for fileLink; derived from the request when empty
	MaxUploadBytes    int64  // upload body limit (default: 1 MiB)
	CORS              CORSConfig
}

// PagePath returns the classified landing page path for segment.
func PagePath(segment string) string {
	return "/" + segment
}

// VerifyPath returns the classified verification API path for segment.
func VerifyPath(segment string) string {
	return "/api/" + segment + "/verify"
}

// Handler serves the lockbox HTTP surface.
type Handler struct {
	config   HandlerConfig
	service  Service
	auth     ClientAuth
	pages    pages
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration, service and
// classified-client collaborators.
func NewHandler(config *HandlerConfig, service Service, auth ClientAuth) *Handler {
	cfg := *config
	if cfg.ClassifiedSegment == "" {
		cfg.ClassifiedSegment = defaultSegment
	}
	if cfg.Scheme == "" {
		cfg.Scheme = defaultScheme
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	return &Handler{
		config:   cfg,
		service:  service,
		auth:     auth,
		pages:    loadPages(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns the dispatcher. Every request is classified once, then
// passed through the gate, then matched against the routes below. Anything
// unmatched renders the landing page.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(ClassifyMiddleware(h.auth.Classifier))
	r.Use(GateMiddleware(h.auth.Gate))

	segment := h.config.ClassifiedSegment
	r.HandleFunc(PagePath(segment), withVerdict(h.classifiedOnly(h.handlePlayerPage)))
	r.Post(VerifyPath(segment), withVerdict(h.classifiedOnly(h.handleVerify)))

	r.HandleFunc("/", withVerdict(h.handleLanding))
	r.HandleFunc("/index.html", withVerdict(h.handleLanding))
	r.HandleFunc("/search", withVerdict(h.handleSearchPage))
	r.HandleFunc("/search.html", withVerdict(h.handleSearchPage))

	r.Post("/api/upload", withVerdict(h.handleUpload))
	r.Get("/api/read", withVerdict(h.handleRead))
	r.Post("/api/search", withVerdict(h.handleSearch))
	r.HandleFunc("/download/*", withVerdict(h.handleDownload))

	r.NotFound(withVerdict(h.handleLanding))
	r.MethodNotAllowed(withVerdict(h.handleLanding))

	return r
}

type verdictHandler func(w http.ResponseWriter, r *http.Request, v lockbox.Verdict)

// withVerdict hands the request's verdict to next as an explicit argument.
func withVerdict(next verdictHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, VerdictFromContext(r.Context()))
	}
}

// classifiedOnly answers normal clients with the landing page.
func (h *Handler) classifiedOnly(next verdictHandler) verdictHandler {
	return func(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
		if !v.IsSpecialClient {
			h.handleLanding(w, r, v)
			return
		}
		next(w, r, v)
	}
}

func (h *Handler) handleLanding(w http.ResponseWriter, _ *http.Request, v lockbox.Verdict) {
	data := pageData{Title: "Lockbox", Scheme: h.config.Scheme}
	if v.IsSpecialClient {
		data.Notice = classifiedNotice
		data.PlayerPath = PagePath(h.config.ClassifiedSegment)
	}
	render(w, h.pages.index, data)
}

func (h *Handler) handleSearchPage(w http.ResponseWriter, _ *http.Request, _ lockbox.Verdict) {
	render(w, h.pages.search, pageData{Title: "Search", Scheme: h.config.Scheme})
}

func (h *Handler) handlePlayerPage(w http.ResponseWriter, _ *http.Request, v lockbox.Verdict) {
	render(w, h.pages.player, pageData{
		Title:      "Player",
		Token:      v.Token,
		Scheme:     h.config.Scheme,
		VerifyPath: VerifyPath(h.config.ClassifiedSegment),
	})
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type verifyResponse struct {
	Verified  bool      `json:"verified"`
	Token     string    `json:"token"`
	Scheme    string    `json:"scheme"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleVerify exchanges a challenge token for a session token bound to the
// same fingerprint.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
	if h.auth.Tokens == nil {
		HandleError(w, errors.New("verify: no token issuer configured"))
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)).Decode(&req); err != nil {
		HandleError(w, decodeError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleError(w, validationError(err))
		return
	}

	if _, err := h.auth.Tokens.Verify(req.Token, classifier.KindChallenge, v.Fingerprint); err != nil {
		WriteError(w, http.StatusForbidden, "forbidden", "Invalid challenge token")
		return
	}

	session, expires, err := h.auth.Tokens.Issue(classifier.KindSession, v.Fingerprint)
	if err != nil {
		HandleError(w, fmt.Errorf("verify: %w", err))
		return
	}

	_ = WriteJSON(w, http.StatusOK, verifyResponse{
		Verified:  true,
		Token:     session,
		Scheme:    h.config.Scheme,
		ExpiresAt: expires,
	})
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	FileLink string `json:"fileLink"`
	Client   string `json:"client,omitempty"`
}

// handleUpload picks the classified variant only when the verdict and the
// Authorization scheme agree.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
	if v.IsSpecialClient && authgate.HasScheme(r, h.config.Scheme) {
		h.handleClassifiedUpload(w, r, v)
		return
	}
	h.handleNormalUpload(w, r)
}

func (h *Handler) handleNormalUpload(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeUpload(w, r)
	if err != nil {
		HandleError(w, err)
		return
	}

	h.upload(w, r, req)
}

func (h *Handler) handleClassifiedUpload(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
	token := authgate.HeaderToken(r, h.config.Scheme)
	if h.auth.Tokens == nil || token == "" || h.auth.Tokens.VerifySession(token, v.Fingerprint) != nil {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`%s challenge="%s"`, h.config.Scheme, v.Token))
		HandleError(w, fmt.Errorf("upload: %w", lockbox.ErrUnauthorized))
		return
	}

	req, err := h.decodeUpload(w, r)
	if err != nil {
		HandleError(w, err)
		return
	}
	req.Client = lockbox.ClientClassified
	req.Fingerprint = v.Fingerprint

	h.upload(w, r, req)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, req lockbox.UploadRequest) {
	result, err := h.service.Upload(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{
		Message:  "File uploaded successfully",
		Filename: result.Filename,
		FileLink: h.fileLink(r, result.Filename),
		Client:   result.Client,
	})
}

// decodeUpload reads a JSON or form body and validates the required fields.
// Any other media type, including a missing one, is rejected.
func (h *Handler) decodeUpload(w http.ResponseWriter, r *http.Request) (lockbox.UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	var req lockbox.UploadRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, decodeError(err)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
			return req, decodeError(err)
		}
		req = uploadFromForm(r.PostForm)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, decodeError(err)
		}
		req = uploadFromForm(r.PostForm)
	default:
		return req, fmt.Errorf("upload %q: %w", mediaType, ErrUnsupportedMediaType)
	}

	if err := h.validate.Struct(req); err != nil {
		return req, validationError(err)
	}
	return req, nil
}

func uploadFromForm(form url.Values) lockbox.UploadRequest {
	return lockbox.UploadRequest{
		Filename: form.Get("filename"),
		Content:  form.Get("content"),
		Password: form.Get("password"),
	}
}

type readResponse struct {
	Content  string `json:"content"`
	FileLink string `json:"fileLink"`
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
	q := r.URL.Query()
	filename, password := q.Get("filename"), q.Get("password")

	item, err := h.service.Read(r.Context(), filename, password)
	if err != nil {
		HandleError(w, err)
		return
	}

	if v.IsSpecialClient {
		writePlaylist(w, item.Content, "")
		return
	}

	_ = WriteJSON(w, http.StatusOK, readResponse{
		Content:  item.Content,
		FileLink: h.fileLink(r, item.Filename),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, _ lockbox.Verdict) {
	names, err := h.service.Search(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, names)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, v lockbox.Verdict) {
	name := strings.TrimPrefix(r.URL.Path, "/download/")
	password := r.URL.Query().Get("password")

	item, err := h.service.Read(r.Context(), name, password)
	if err != nil {
		HandleError(w, err)
		return
	}

	if v.IsSpecialClient {
		writePlaylist(w, item.Content, mime.FormatMediaType("inline", map[string]string{"filename": item.Filename}))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": item.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(item.Content))
}

// fileLink returns the absolute download URL for filename.
func (h *Handler) fileLink(r *http.Request, filename string) string {
	base := h.config.PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/download/" + url.PathEscape(filename)
}

// writePlaylist writes content as an M3U playlist, adding the header line
// when content lacks it.
func writePlaylist(w http.ResponseWriter, content, disposition string) {
	body := playlist(content)
	w.Header().Set("Content-Type", playlistContentType)
	if disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func playlist(content string) string {
	if strings.HasPrefix(strings.TrimLeft(content, "\ufeff \t\r\n"), playlistHeader) {
		return content
	}
	return playlistHeader + "\n" + content
}

// decodeError keeps body size errors intact and reports everything else as
// invalid input.
func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return wrapInvalid("malformed request body")
}
