// File: internal/fixtures/fixtures.go

// Package fixtures embeds the demo pages and serves them over a local
// HTTP listener. The pages deliberately misbehave the way real apps
// do: menus open lazily and overlays briefly intercept clicks.
package fixtures

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"
)

//go:embed html
var content embed.FS

// Page filenames served by the fixture server.
const (
	MockWebsite  = "mock_website.html"
	MockLogin    = "mock_login.html"
	LoginSuccess = "login_success.html"
)

// FS returns the embedded pages rooted at the HTML directory.
func FS() fs.FS {
	sub, err := fs.Sub(content, "html")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Server serves the embedded pages on a local listener.
type Server struct {
	baseURL string
	httpSrv *http.Server
	ln      net.Listener
	errCh   chan error
}

// NewServer binds addr ("127.0.0.1:0" picks a free port) without
// starting to serve yet.
func NewServer(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind fixture server: %w", err)
	}
	return &Server{
		baseURL: fmt.Sprintf("http://%s", ln.Addr().String()),
		httpSrv: &http.Server{
			Handler:           http.FileServer(http.FS(FS())),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:    ln,
		errCh: make(chan error, 1),
	}, nil
}

// BaseURL returns the root URL of the running server.
func (s *Server) BaseURL() string { return s.baseURL }

// URL returns the full URL for one of the embedded pages.
func (s *Server) URL(page string) string {
	return s.baseURL + "/" + page
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		if err := s.httpSrv.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			s.errCh <- err
		}
		close(s.errCh)
	}()
}

// Shutdown stops the server gracefully and reports any serve error.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("fixture server shutdown failed: %w", err)
	}
	if err, ok := <-s.errCh; ok && err != nil {
		return err
	}
	return nil
}
