package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// classifiedNotice is shown on the landing page to classified clients.
const classifiedNotice = "A playback client was detected. The API needs a session; pages opened with ?token=<session> use it automatically."

type pageData struct {
	Title      string
	Notice     string
	Token      string
	Scheme     string // Authorization scheme page scripts send the session with
	VerifyPath string
	PlayerPath string
}

type pages struct {
	index  *template.Template
	search *template.Template
	player *template.Template
}

func loadPages() pages {
	parse := func(name string) *template.Template {
		return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return pages{
		index:  parse("index.html"),
		search: parse("search.html"),
		player: parse("player.html"),
	}
}

// render executes tmpl into a buffer and writes it only on success.
func render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("render page", "page", data.Title, "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
