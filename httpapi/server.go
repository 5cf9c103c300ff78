package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"santa/service"
)

// Check reports the health of one dependency
type Check func(ctx context.Context) error

// Server exposes health, readiness and registration counters for operators
type Server struct {
	stats  service.StatsService
	gate   service.DrawGate
	checks map[string]Check
	http   *http.Server
}

// NewServer builds the ops HTTP server
func NewServer(addr string, stats service.StatsService, gate service.DrawGate, checks map[string]Check, release bool) *Server {
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		stats:  stats,
		gate:   gate,
		checks: checks,
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)
	router.GET("/stats", s.handleStats)

	return router
}

// Start serves in the background until Shutdown is called
func (s *Server) Start() {
	go func() {
		log.Infof("Starting ops HTTP server on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Ops HTTP server failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			log.WithField("dependency", name).WithError(err).Warn("Readiness check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	c.JSON(status, gin.H{"checks": results})
}

type statsResponse struct {
	Registered int  `json:"registered"`
	Total      int  `json:"total"`
	DrawClosed bool `json:"draw_closed"`
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := s.stats.GetStatistics(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load statistics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}

	closed, err := s.gate.IsClosed(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read draw gate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read draw gate"})
		return
	}

	c.JSON(http.StatusOK, statsResponse{
		Registered: stats.RegisteredCount(),
		Total:      stats.Total(),
		DrawClosed: closed,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	}
}
