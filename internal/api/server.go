// Package api exposes the turn pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"interview-agent/internal/common/config"
	"interview-agent/internal/common/logger"
)

type Server struct {
	http    *http.Server
	metrics *http.Server
	logger  logger.Logger
}

func NewServer(cfg config.ServerConfig, env string, h *Handler, log logger.Logger) *Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	chat := engine.Group("/api/chat", identity())
	chat.POST("", h.PostChat)
	chat.GET("/usage", h.GetUsage)
	chat.DELETE("", h.DeleteChat)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:        cfg.Address,
			Handler:     engine,
			ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		},
		metrics: &http.Server{
			Addr:    cfg.MetricsAddress,
			Handler: metricsMux,
		},
		logger: log.With(map[string]interface{}{"component": "api"}),
	}
}

// Start runs the API and metrics listeners until either fails.
func (s *Server) Start() error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info("metrics server listening", map[string]interface{}{"address": s.metrics.Addr})
		if err := s.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		s.logger.Info("api server listening", map[string]interface{}{"address": s.http.Addr})
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	return <-errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.metrics.Shutdown(ctx)
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Info("request completed", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		})
	}
}
