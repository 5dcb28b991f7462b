package e2e_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_Lifecycle_SQLite exercises upload, read and search over HTTP on SQLite.
func TestE2E_Lifecycle_SQLite(t *testing.T) {
	baseURL, _, cleanup := startServer(t, ServerConfig{
		Port:      getOpenPort(t),
		StoreType: "sqlite",
		StoreDSN:  filepath.Join(t.TempDir(), "test.db"),
	})
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

// TestE2E_Lifecycle_Postgres exercises the same flow on PostgreSQL.
func TestE2E_Lifecycle_Postgres(t *testing.T) {
	baseURL, _, cleanup := startServer(t, ServerConfig{
		Port:      getOpenPort(t),
		StoreType: "postgres",
		StoreDSN:  getSharedPostgresDatabase(t),
	})
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

// TestE2E_Lifecycle_Bolt exercises the same flow on a bolt file.
func TestE2E_Lifecycle_Bolt(t *testing.T) {
	baseURL, _, cleanup := startServer(t, ServerConfig{
		Port:      getOpenPort(t),
		StoreType: "bolt",
		StoreDSN:  filepath.Join(t.TempDir(), "test.bolt"),
	})
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

// TestE2E_Lifecycle_Filesystem exercises the same flow on a directory store.
func TestE2E_Lifecycle_Filesystem(t *testing.T) {
	baseURL, _, cleanup := startServer(t, ServerConfig{
		Port:      getOpenPort(t),
		StoreType: "filesystem",
		StoreDSN:  t.TempDir(),
	})
	defer cleanup()

	runLifecycleTests(t, baseURL)
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	FileLink string `json:"fileLink"`
}

type readResponse struct {
	Content  string `json:"content"`
	FileLink string `json:"fileLink"`
}

func postJSON(t *testing.T, client *http.Client, target, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func readURL(baseURL, filename, password string) string {
	return baseURL + "/api/read?" + url.Values{"filename": {filename}, "password": {password}}.Encode()
}

// runLifecycleTests contains the shared lifecycle test logic.
func runLifecycleTests(t *testing.T, baseURL string) {
	t.Helper()
	client := &http.Client{}

	t.Run("upload stores notes.txt", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/api/upload", `{"filename":"notes.txt","content":"Hello, World!","password":"pw1"}`)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body uploadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "notes.txt", body.Filename)
		assert.Equal(t, baseURL+"/download/notes.txt", body.FileLink)
	})

	t.Run("read returns content with the right password", func(t *testing.T) {
		resp, err := client.Get(readURL(baseURL, "notes.txt", "pw1"))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body readResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Hello, World!", body.Content)
	})

	t.Run("read rejects a wrong password", func(t *testing.T) {
		resp, err := client.Get(readURL(baseURL, "notes.txt", "nope"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("read of a missing item is 404", func(t *testing.T) {
		resp, err := client.Get(readURL(baseURL, "missing.txt", "pw1"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("upload overwrites with a new password", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/api/upload", `{"filename":"notes.txt","content":"v2","password":"pw2"}`)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		old, err := client.Get(readURL(baseURL, "notes.txt", "pw1"))
		require.NoError(t, err)
		_ = old.Body.Close()
		assert.Equal(t, http.StatusForbidden, old.StatusCode)

		cur, err := client.Get(readURL(baseURL, "notes.txt", "pw2"))
		require.NoError(t, err)
		defer cur.Body.Close()
		var body readResponse
		require.NoError(t, json.NewDecoder(cur.Body).Decode(&body))
		assert.Equal(t, "v2", body.Content)
	})

	t.Run("search lists every filename once", func(t *testing.T) {
		for _, name := range []string{"b.txt", "a.txt"} {
			resp := postJSON(t, client, baseURL+"/api/upload", `{"filename":"`+name+`","content":"x","password":"pw"}`)
			_ = resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp := postJSON(t, client, baseURL+"/api/search", "")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var names []string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
		assert.ElementsMatch(t, []string{"notes.txt", "a.txt", "b.txt"}, names)
	})

	t.Run("download is an attachment", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/download/notes.txt?password=pw2")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("missing fields are 400", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/api/upload", `{"filename":"x.txt"}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown paths render the landing page", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/does/not/exist")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})
}

// TestE2E_ClassifiedClient walks a classified client through the challenge
// and uploads with its session.
func TestE2E_ClassifiedClient(t *testing.T) {
	baseURL, _, cleanup := startServer(t, ServerConfig{
		Port:       getOpenPort(t),
		StoreType:  "sqlite",
		StoreDSN:   filepath.Join(t.TempDir(), "test.db"),
		UserAgents: []string{"vlc"},
	})
	defer cleanup()

	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	do := func(t *testing.T, req *http.Request) *http.Response {
		t.Helper()
		req.Header.Set("User-Agent", playerUA)
		resp, err := noRedirect.Do(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("pages redirect to the player page", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/search", nil)
		resp := do(t, req)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/player", resp.Header.Get("Location"))
	})

	t.Run("landing page carries the notice", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/", nil)
		resp := do(t, req)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		page, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(page), `class="notice"`)
	})

	t.Run("api calls without a session are 401", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/search", nil)
		resp := do(t, req)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
	})

	var session string
	t.Run("challenge and verify", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/player", nil)
		resp := do(t, req)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		page, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		challenge := challengeFrom(t, string(page))

		req, _ = http.NewRequest(http.MethodPost, baseURL+"/api/player/verify", strings.NewReader(`{"token":"`+challenge+`"}`))
		req.Header.Set("Content-Type", "application/json")
		vresp := do(t, req)
		defer vresp.Body.Close()
		require.Equal(t, http.StatusOK, vresp.StatusCode)

		var body struct {
			Verified bool   `json:"verified"`
			Token    string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(vresp.Body).Decode(&body))
		require.True(t, body.Verified)
		session = body.Token
	})

	t.Run("session upload and playlist read", func(t *testing.T) {
		require.NotEmpty(t, session)

		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/upload",
			strings.NewReader(`{"filename":"list.m3u","content":"http://radio/stream","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Playback "+session)
		resp := do(t, req)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		req, _ = http.NewRequest(http.MethodGet, readURL(baseURL, "list.m3u", "pw"), nil)
		req.Header.Set("Authorization", "Playback "+session)
		rresp := do(t, req)
		defer rresp.Body.Close()
		require.Equal(t, http.StatusOK, rresp.StatusCode)

		data, err := io.ReadAll(rresp.Body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "#EXTM3U\n"))
		assert.Contains(t, string(data), "http://radio/stream")
	})

	t.Run("normal clients never see the player page", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/player")
		require.NoError(t, err)
		defer resp.Body.Close()

		page, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, string(page), `name="token"`)
	})
}

func challengeFrom(t *testing.T, html string) string {
	t.Helper()
	const marker = `name="token" value="`
	i := strings.Index(html, marker)
	require.GreaterOrEqual(t, i, 0, "challenge token not embedded in page")
	rest := html[i+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

// TestE2E_CommandLine stores items with lockbox put and reads them back
// through the server with lockbox-cli.
func TestE2E_CommandLine(t *testing.T) {
	cfg := ServerConfig{
		Port:      getOpenPort(t),
		StoreType: "sqlite",
		StoreDSN:  filepath.Join(t.TempDir(), "test.db"),
	}
	configPath := createConfigFile(t, cfg)

	runServerCmd(t, configPath, "", "migrate")
	runServerCmd(t, configPath, "from stdin", "put", "--password", "pw", "--name", "stdin.txt", "-")

	local := filepath.Join(t.TempDir(), "local.txt")
	require.NoError(t, os.WriteFile(local, []byte("from file"), 0o600))
	runServerCmd(t, configPath, "", "put", "--password", "pw", "--quiet", local)

	out := runServerCmd(t, configPath, "", "list")
	assert.Contains(t, out, "stdin.txt")
	assert.Contains(t, out, "local.txt")

	baseURL, _, cleanup := startServer(t, cfg)
	defer cleanup()

	t.Run("read", func(t *testing.T) {
		out, err := runClient(t, "read", "-e", baseURL, "-P", "pw", "stdin.txt")
		require.NoError(t, err)
		assert.Equal(t, "from stdin\n", out)
	})

	t.Run("wrong password fails", func(t *testing.T) {
		_, err := runClient(t, "read", "-e", baseURL, "-P", "bad", "stdin.txt")
		assert.Error(t, err)
	})

	t.Run("upload then search", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "cli.txt")
		require.NoError(t, os.WriteFile(src, []byte("via cli"), 0o600))

		_, err := runClient(t, "upload", "-e", baseURL, "-P", "pw", "-q", src)
		require.NoError(t, err)

		out, err := runClient(t, "search", "-e", baseURL, "-q")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"cli.txt", "local.txt", "stdin.txt"}, strings.Fields(out))
	})

	t.Run("download", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.txt")
		_, err := runClient(t, "download", "-e", baseURL, "-P", "pw", "-o", dest, "local.txt")
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "from file", string(data))
	})

	t.Run("saved profile", func(t *testing.T) {
		profiles := filepath.Join(t.TempDir(), "profiles.yaml")

		out, err := runClient(t, "-c", profiles, "configure", "add", "e2e", "-e", baseURL, "-P", "pw", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "Profile 'e2e' added (default).")

		out, err = runClient(t, "-c", profiles, "read", "stdin.txt")
		require.NoError(t, err)
		assert.Equal(t, "from stdin\n", out)
	})
}
