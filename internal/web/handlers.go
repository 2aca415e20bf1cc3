package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hpungsan/sitecat/internal/errors"
	"github.com/hpungsan/sitecat/internal/history"
)

// Handlers contains HTTP route handlers for the dev server.
type Handlers struct {
	db         *sql.DB
	dir        string
	openPath   string
	live       bool
	fileServer http.Handler
	renderer   *Renderer
}

// HandleIndex handles GET / — redirect the bare root to the landing page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if h.openPath == "" {
		h.fileServer.ServeHTTP(w, r)
		return
	}
	http.Redirect(w, r, "/"+h.openPath, http.StatusFound)
}

// HandleBuilds handles GET /_sitecat/builds — recent build history as JSON.
func (h *Handlers) HandleBuilds(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", history.DefaultLimit)

	if h.db == nil {
		renderJSON(w, http.StatusOK, &history.RecentOutput{Builds: []history.Record{}})
		return
	}

	builds, err := history.Recent(h.db, limit)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, &history.RecentOutput{Builds: builds})
}

// HandleStatic serves files from the site directory. Markdown gets rendered
// to HTML, and in live mode pages have the reload client injected.
func (h *Handlers) HandleStatic(w http.ResponseWriter, r *http.Request) {
	local := localPath(h.dir, r.URL.Path)

	if strings.HasSuffix(local, ".md") {
		h.serveMarkdown(w, r, local)
		return
	}
	if h.live && strings.HasSuffix(local, ".html") {
		h.serveLivePage(w, r, local)
		return
	}
	h.fileServer.ServeHTTP(w, r)
}

func (h *Handlers) serveMarkdown(w http.ResponseWriter, r *http.Request, local string) {
	data, err := os.ReadFile(local)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderer.RenderMarkdownPage(w, filepath.Base(local), data)
}

// serveLivePage injects the reload client into an HTML page. Unreadable
// pages fall through to the file server so its error handling applies.
func (h *Handlers) serveLivePage(w http.ResponseWriter, r *http.Request, local string) {
	data, err := os.ReadFile(local)
	if err != nil {
		h.fileServer.ServeHTTP(w, r)
		return
	}

	script := []byte(`<script src="/_sitecat/livereload.js"></script>`)
	if idx := bytes.LastIndex(data, []byte("</body>")); idx >= 0 {
		var buf bytes.Buffer
		buf.Grow(len(data) + len(script))
		buf.Write(data[:idx])
		buf.Write(script)
		buf.Write(data[idx:])
		data = buf.Bytes()
	} else {
		data = append(data, script...)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// localPath maps a request path to a file under dir, stripping any
// traversal segments first.
func localPath(dir, urlPath string) string {
	clean := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	return filepath.Join(dir, filepath.FromSlash(clean))
}

// renderJSON writes a JSON response with the given status code.
func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// renderError writes a SiteError as JSON, converting unknown errors to a
// generic internal error first.
func renderError(w http.ResponseWriter, err error) {
	var siteErr *errors.SiteError
	if !stderrors.As(err, &siteErr) {
		siteErr = errors.NewInternal(err)
	}
	renderJSON(w, siteErr.Status, map[string]any{
		"error": map[string]any{
			"code":    siteErr.Code,
			"message": siteErr.Message,
			"status":  siteErr.Status,
		},
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
