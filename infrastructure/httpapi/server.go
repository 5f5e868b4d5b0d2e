// Package httpapi exposes the clip engine over HTTP
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"match-highlights/application/batch"
	"match-highlights/application/clip"
	uploads "match-highlights/application/distribution"
	"match-highlights/domain/distribution"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// BatchService queues batches and reports on their jobs
type BatchService interface {
	Submit(ctx context.Context, b batch.Batch) (*batch.Job, error)
	Get(ctx context.Context, id string) (*batch.Job, error)
}

// SegmentService stores raw segments and lists produced clips
type SegmentService interface {
	UploadSegment(ctx context.Context, input uploads.SegmentInput) (*uploads.SegmentResult, error)
	ListClips(ctx context.Context, filter distribution.ListFilter) ([]distribution.Clip, error)
}

// CutService cuts a clip out of one stored file
type CutService interface {
	Cut(ctx context.Context, input clip.CutInput) (*distribution.Clip, error)
}

// ServerConfig holds the dependencies of the HTTP server
type ServerConfig struct {
	Port        int
	CORSOrigins []string
	Batches     BatchService
	Segments    SegmentService
	Cuts        CutService
	Logger      logrus.FieldLogger
}

// Server is the HTTP front of the service
type Server struct {
	httpServer *http.Server
	log        logrus.FieldLogger
}

// NewServer builds the server and its routes
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewHandler(cfg),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: cfg.Logger,
	}
}

// NewHandler returns the router wrapped in CORS handling
func NewHandler(cfg ServerConfig) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
	)
	return cors(NewRouter(cfg))
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
