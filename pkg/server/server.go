// Package server exposes the completion pipeline over HTTP and gRPC.
//
// The HTTP surface is OpenAI-compatible:
//
//	POST /v1beta/openai/chat/completions
//	GET  /v1beta/openai/models
//	GET  /healthz
//
// The gRPC surface serves the haithe.v1.Completions service with the same
// request and response shapes, plus the standard health service.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Haithedotai/core/pkg/auth"
	"github.com/Haithedotai/core/pkg/model"
)

// Completer runs completions. *pipeline.Pipeline implements it.
type Completer interface {
	Complete(ctx context.Context, req *model.CompletionRequest) (*model.CompletionResult, error)
	EnrolledModels(ctx context.Context, orgUID string) ([]model.Model, error)
}

// Authenticator identifies callers from request headers.
// *auth.Authenticator implements it.
type Authenticator interface {
	FromHeaders(ctx context.Context, h http.Header) (*auth.Caller, error)
}

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// Deps are the collaborators of a Server. Probes are keyed by the name shown
// in health reports.
type Deps struct {
	Pipeline Completer
	Auth     Authenticator
	Probes   map[string]Probe
}

// Server holds the HTTP and gRPC handlers.
type Server struct {
	deps         Deps
	handler      http.Handler
	now          func() time.Time
	probeTimeout time.Duration
}

// New returns a Server for deps.
func New(deps Deps) *Server {
	s := &Server{
		deps:         deps,
		now:          time.Now,
		probeTimeout: 5 * time.Second,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve serves HTTP on lis until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	zap.L().Info("HTTP server listening", zap.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
