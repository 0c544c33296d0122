package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mailtriage/internal/handler"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/otel"
)

type Router struct {
	Engine *gin.Engine
	logger *zap.Logger
}

func NewRouter(triageHandler *handler.TriageHandler, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), otel.GinMiddleware(), requestMetrics(logger))

	r.GET("/healthz", triageHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/emails/process", triageHandler.ProcessEmail)
	}

	return &Router{Engine: r, logger: logger}
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	r.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func requestMetrics(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), latency)

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
	}
}
