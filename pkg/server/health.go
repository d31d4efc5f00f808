package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthReport is the body of GET /healthz.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CheckHealth runs every probe and reports "ok" or the probe error.
func (s *Server) CheckHealth(ctx context.Context) (HealthReport, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	report := HealthReport{Status: "ok", Checks: make(map[string]string, len(s.deps.Probes))}
	healthy := true
	for name, probe := range s.deps.Probes {
		if err := probe(ctx); err != nil {
			report.Checks[name] = err.Error()
			healthy = false
			continue
		}
		report.Checks[name] = "ok"
	}
	if !healthy {
		report.Status = "degraded"
	}
	return report, healthy
}

func (s *Server) handleHealth(c *gin.Context) {
	report, ok := s.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// WatchHealth updates the gRPC health status from the probes every interval
// until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, hs *health.Server, interval time.Duration) {
	s.updateHealth(ctx, hs)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.updateHealth(ctx, hs)
		}
	}
}

func (s *Server) updateHealth(ctx context.Context, hs *health.Server) {
	report, ok := s.CheckHealth(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		zap.L().Warn("Health check failed", zap.Any("checks", report.Checks))
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(completionServiceName, status)
}
