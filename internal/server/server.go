// Package server exposes the answering service and the voice orchestrator
// over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/domain"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/logger"
	"github.com/ALLAVO/Hackathon-MyAiGrandma/internal/usecase"
)

//go:embed static
var staticFiles embed.FS

// Ingester runs a voice upload through the pipeline.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, filename string) (*usecase.IngestResult, error)
}

// Answering is the text side of the service.
type Answering interface {
	Answer(ctx context.Context, query, mood string) (domain.Answer, error)
	Evidence(ctx context.Context, query string) ([]string, error)
}

// StatsSource reports index statistics for /healthz.
type StatsSource interface {
	GetStats() (domain.Stats, error)
}

type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64 // 0 disables limiting
	RateLimitBurst int
	UIDir          string // empty serves the embedded page
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	ingester  Ingester
	answering Answering
	stats     StatsSource
	opts      Options
	limiter   *clientLimiter
}

func New(ingester Ingester, answering Answering, stats StatsSource, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	s := &Server{
		ingester:  ingester,
		answering: answering,
		stats:     stats,
		opts:      opts,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload_audio", s.handleUploadAudio)
	mux.HandleFunc("POST /rag", s.handleRAG)
	mux.HandleFunc("POST /rag_retrieve", s.handleRAGRetrieve)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /", s.uiHandler())

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.middleware(h)
	}
	h = accessLog(h)
	h = requestID(h)
	return h
}

func (s *Server) uiHandler() http.Handler {
	if s.opts.UIDir != "" {
		return http.FileServer(http.Dir(s.opts.UIDir))
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Serve blocks while handling HTTP on listener. Cancel ctx to shut down
// gracefully; in-flight requests are allowed to drain.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	logger.Info("server listening", "addr", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
