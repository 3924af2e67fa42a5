// Package server is the web transport: a gin router serving the chat page,
// the chat and websocket endpoints, uploads, transcript browsing and
// metrics.
package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/interview"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/transcript"
	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/upload"
)

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "casebot_session"

// DefaultMaxUploadBytes caps multipart upload bodies.
const DefaultMaxUploadBytes = 32 << 20

// Transcripts is the read side of the transcript store.
type Transcripts interface {
	List() ([]transcript.Entry, error)
	Read(name string) (transcript.Record, error)
}

// RouterOpts holds the dependencies of the HTTP handlers.
type RouterOpts struct {
	Service        *interview.Service
	Uploads        upload.Store
	Transcripts    Transcripts         // optional; /api/transcripts is not registered without it
	APIToken       string              // bearer token for /api/transcripts; required with Transcripts
	Gatherer       prometheus.Gatherer // optional; /metrics is not registered without it
	CookieName     string
	CookieSecure   bool
	MaxUploadBytes int64
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	RouterOpts
	Addr string
	Out  io.Writer
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts RouterOpts) (*gin.Engine, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("server: service is required")
	}
	if opts.Uploads == nil {
		return nil, fmt.Errorf("server: uploads store is required")
	}
	if opts.Transcripts != nil && opts.APIToken == "" {
		return nil, fmt.Errorf("server: api token is required for the transcripts API")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = opts.MaxUploadBytes

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, &handlers{opts: opts})
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Addr == "" {
		opts.Addr = ":5000"
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts.RouterOpts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Case study chatbot running at http://localhost%s\n", opts.Addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
