package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/auth"
	hgrpc "github.com/Haithedotai/core/pkg/grpc"
)

const completionServiceName = hgrpc.CompletionService

// RegisterGRPC adds the completion and health services to srv. The returned
// health server starts as NOT_SERVING; drive it with WatchHealth.
func (s *Server) RegisterGRPC(srv *grpc.Server) (*health.Server, error) {
	files, err := hgrpc.Compile(nil)
	if err != nil {
		return nil, err
	}
	err = hgrpc.Register(srv, files, completionServiceName, map[string]hgrpc.JSONHandler{
		"Complete":   s.grpcComplete,
		"ListModels": s.grpcListModels,
	})
	if err != nil {
		return nil, err
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(completionServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return hs, nil
}

// NewGRPCServer returns a gRPC server with request logging.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(append(opts, grpc.ChainUnaryInterceptor(logUnary))...)
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	zap.L().Info("gRPC request",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)))
	return resp, err
}

// grpcCaller authenticates from incoming metadata using the HTTP header names.
func (s *Server) grpcCaller(ctx context.Context) (*auth.Caller, error) {
	h := http.Header{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for k, vs := range md {
			for _, v := range vs {
				h.Add(k, v)
			}
		}
	}
	return s.deps.Auth.FromHeaders(ctx, h)
}

func (s *Server) grpcComplete(ctx context.Context, body []byte) ([]byte, error) {
	caller, err := s.grpcCaller(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, grpcError(apierr.BadRequestf("Invalid request body", err))
	}
	resp, err := s.complete(ctx, caller, &req)
	if err != nil {
		return nil, grpcError(err)
	}
	return json.Marshal(resp)
}

func (s *Server) grpcListModels(ctx context.Context, _ []byte) ([]byte, error) {
	caller, err := s.grpcCaller(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	list, err := s.listModels(ctx, caller)
	if err != nil {
		return nil, grpcError(err)
	}
	return json.Marshal(list)
}

var grpcCodes = map[apierr.Kind]codes.Code{
	apierr.KindBadRequest:   codes.InvalidArgument,
	apierr.KindUnauthorized: codes.Unauthenticated,
	apierr.KindForbidden:    codes.PermissionDenied,
	apierr.KindNotFound:     codes.NotFound,
	apierr.KindInternal:     codes.Internal,
}

func grpcError(err error) error {
	kind := apierr.KindOf(err)
	if kind == apierr.KindInternal {
		zap.L().Error("gRPC request failed", zap.Error(err))
	}
	return status.Error(grpcCodes[kind], apierr.Message(err))
}
