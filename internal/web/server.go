// Package web implements the local dev server: static file serving for the
// site directory, markdown previews, build history, and optional live
// reload over websockets.
package web

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/sitecat/internal/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures the dev server.
type Options struct {
	Dir      string // directory served as the site root
	Bind     string // listen address
	Port     int    // listen port
	OpenPath string // page the bare root redirects to
	Live     bool   // enable the live-reload endpoints
	Version  string
}

// Server is the dev server with its listener and optional live-reload hub.
type Server struct {
	opts Options
	hub  *Hub
	srv  *http.Server
	ln   net.Listener
}

// NewServer creates and configures the dev server. Call Listen (or Run,
// which listens on demand) to bind the port.
func NewServer(db *sql.DB, opts Options) *Server {
	if opts.Dir == "" {
		opts.Dir = "."
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	s := &Server{opts: opts}
	if opts.Live {
		s.hub = NewHub()
	}

	h := &Handlers{
		db:         db,
		dir:        opts.Dir,
		openPath:   opts.OpenPath,
		live:       opts.Live,
		fileServer: http.FileServer(http.Dir(opts.Dir)),
		renderer:   NewRenderer(templateSub, opts.Version),
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /_sitecat/builds", h.HandleBuilds)
	if opts.Live {
		mux.HandleFunc("GET /_sitecat/reload", s.hub.HandleWS)
		mux.Handle("GET /_sitecat/livereload.js", http.StripPrefix("/_sitecat/", http.FileServerFS(staticSub)))
	}
	mux.HandleFunc("GET /", h.HandleStatic)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler: devHeaders(mux),
	}

	return s
}

// devHeaders disables caching so edits show up on the next refresh, and
// keeps content-type sniffing off.
func devHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// Listen binds the configured address, mapping an occupied port to
// PORT_IN_USE so callers can print actionable diagnostics.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.NewPortInUse(s.opts.Port)
		}
		return errors.NewIO("listen "+s.srv.Addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}

// Hub returns the live-reload hub, nil unless Live was set.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until SIGINT/SIGTERM arrives or the context is cancelled,
// then drains connections. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.ln)
	}()

	log.Printf("sitecat serving %s at http://%s", s.opts.Dir, s.Addr())

	if strings.Contains(s.srv.Addr, "0.0.0.0") || strings.Contains(s.srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
