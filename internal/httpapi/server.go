package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
)

// DefaultMaxUploadBytes caps uploads when Options leave it unset.
const DefaultMaxUploadBytes int64 = 32 << 20

// Options configures the HTTP server.
type Options struct {
	// MaxUploadBytes is the largest request body accepted by /analyze.
	MaxUploadBytes int64
	// AllowOrigins lists CORS origins. Empty or "*" allows all.
	AllowOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end of an Analyzer.
type Server struct {
	analyzer *analysis.Analyzer
	logger   *zap.Logger
	opts     Options
	router   *gin.Engine
}

// New creates the server and its routes. A nil logger discards logs.
func New(analyzer *analysis.Analyzer, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		analyzer: analyzer,
		logger:   logger,
		opts:     opts,
	}

	r := gin.New()
	r.Use(requestID())
	r.Use(requestLogger(logger))
	r.Use(recovery(logger))
	r.Use(corsMiddleware(opts.AllowOrigins))
	// Keep small uploads in memory; larger parts spill to temp files.
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", s.handleHealth)
	r.POST("/analyze", s.handleAnalyze)

	s.router = r
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
