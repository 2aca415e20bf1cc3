package web

import (
	"bytes"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/yuin/goldmark"
)

// markdownPageData is the template data for the markdown preview shell.
type markdownPageData struct {
	Title   string
	Version string
	Body    template.HTML
}

// Renderer renders markdown previews into the embedded page shell.
type Renderer struct {
	shell   *template.Template
	version string
}

// NewRenderer parses the preview shell from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	shell := template.Must(template.New("markdown.html").ParseFS(templateFS, "markdown.html"))
	return &Renderer{
		shell:   shell,
		version: version,
	}
}

// RenderMarkdownPage converts markdown to HTML and wraps it in the shell.
func (r *Renderer) RenderMarkdownPage(w http.ResponseWriter, title string, md []byte) {
	data := markdownPageData{
		Title:   title,
		Version: r.version,
		Body:    renderMarkdown(string(md)),
	}

	var buf bytes.Buffer
	if err := r.shell.ExecuteTemplate(&buf, "markdown.html", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
