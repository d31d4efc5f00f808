package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/auth"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-Id"

const (
	traceKey  = "traceID"
	callerKey = "caller"
)

func (s *Server) routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(traceMiddleware(), logMiddleware(), gin.CustomRecovery(recoverPanic))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			auth.HeaderOrganization, auth.HeaderProject,
			auth.HeaderOpenAIOrganization, auth.HeaderOpenAIProject,
			TraceHeader,
		},
		ExposeHeaders: []string{TraceHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/v1beta/openai")
	api.Use(s.authMiddleware())
	api.POST("/chat/completions", s.handleChatCompletions)
	api.GET("/models", s.handleModels)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, apierr.NotFound("Not found"))
	})
	return r
}

func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		c.Set(traceKey, traceID)
		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("traceId", c.GetString(traceKey)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			zap.L().Warn("HTTP request", fields...)
			return
		}
		zap.L().Info("HTTP request", fields...)
	}
}

func recoverPanic(c *gin.Context, recovered any) {
	zap.L().Error("Handler panicked",
		zap.Any("panic", recovered),
		zap.String("traceId", c.GetString(traceKey)))
	writeError(c, apierr.Internal("Internal error", nil))
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := s.deps.Auth.FromHeaders(c.Request.Context(), c.Request.Header)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) *auth.Caller {
	caller, _ := c.MustGet(callerKey).(*auth.Caller)
	return caller
}

// writeError aborts the request with the JSON error envelope.
func writeError(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	if kind == apierr.KindInternal {
		zap.L().Error("Request failed",
			zap.String("traceId", c.GetString(traceKey)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(kind.Status(), ErrorResponse{Success: false, Message: apierr.Message(err)})
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierr.BadRequestf("Invalid request body", err))
		return
	}
	resp, err := s.complete(c.Request.Context(), callerFrom(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModels(c *gin.Context) {
	list, err := s.listModels(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
