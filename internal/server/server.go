package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atikulmunna/threadline/internal/aggregator"
	"github.com/atikulmunna/threadline/internal/hub"
	"github.com/atikulmunna/threadline/internal/metrics"
	"github.com/atikulmunna/threadline/internal/pipeline"
	"github.com/atikulmunna/threadline/internal/render"
)

//go:embed all:web
var webFS embed.FS

// Server holds the Gin engine and dependencies for the timeline dashboard.
type Server struct {
	engine   *gin.Engine
	pipeline *pipeline.Pipeline
	input    string
	hub      *hub.Hub
	metrics  *metrics.Metrics
	port     string
	log      *zap.SugaredLogger
}

// New creates a dashboard server for the log at input. Every timeline
// request re-reads the whole log.
func New(p *pipeline.Pipeline, input string, h *hub.Hub, m *metrics.Metrics, port string, log *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:   engine,
		pipeline: p,
		input:    input,
		hub:      h,
		metrics:  m,
		port:     port,
		log:      log,
	}

	s.setupRoutes()
	return s
}

// serveEmbedded reads a file from the embedded FS and writes it with the given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	// Pre-read the file at startup so we don't read on every request.
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	webContent, _ := fs.Sub(webFS, "web")

	s.engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))

	s.engine.GET("/timeline.svg", s.handleSVG)
	s.engine.GET("/api/timeline", s.handleTimeline)
	s.engine.GET("/api/summary", s.handleSummary)

	s.engine.GET("/healthz", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"input":   s.input,
			"dropped": s.hub.Dropped(),
		}
		if n, ok := s.hub.Latest(); ok {
			body["latest"] = n
		}
		c.JSON(http.StatusOK, body)
	})

	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

func (s *Server) handleSVG(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := s.pipeline.Render(&buf, s.input); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) handleTimeline(c *gin.Context) {
	res, err := s.pipeline.Load(s.input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"input":    s.input,
		"lines":    res.Lines,
		"counters": res.Counters,
		"timeline": res.Timeline,
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	res, err := s.pipeline.Load(s.input)
	if err != nil {
		s.fail(c, err)
		return
	}
	if res.Timeline.Empty() {
		s.fail(c, render.ErrNoOperations)
		return
	}
	c.JSON(http.StatusOK, aggregator.Summarize(res.Timeline))
}

// fail maps pipeline errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, render.ErrNoOperations), errors.Is(err, render.ErrZeroSpan):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server until ctx is cancelled, then shuts it down.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnw("server shutdown", "error", err)
		}
	}()

	s.log.Infow("dashboard listening", "addr", srv.Addr, "input", s.input)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
