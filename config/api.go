package config

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIServer exposes the effective configuration read-only.
type APIServer struct {
	config *Config
}

// NewAPIServer creates a config API server.
func NewAPIServer(config *Config) *APIServer {
	return &APIServer{config: config}
}

// RegisterRoutes mounts the config routes on group.
func (s *APIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/config", s.HandleGetConfig)
}

// HandleGetConfig handles GET /config. Durations are reported as strings.
func (s *APIServer) HandleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api": gin.H{
			"base_url":   s.config.API.BaseURL,
			"user_agent": s.config.API.UserAgent,
			"timeout":    s.config.API.Timeout.String(),
			"rate_limit": s.config.API.RateLimit,
			"burst":      s.config.API.Burst,
		},
		"discovery": gin.H{
			"batch_size":    s.config.Discovery.BatchSize,
			"max_attempts":  s.config.Discovery.MaxAttempts,
			"backoff":       s.config.Discovery.Backoff.String(),
			"nearby_radius": s.config.Discovery.NearbyRadius,
		},
		"acquisition": s.config.Acquisition,
		"history":     s.config.Storage.HistoryDSN != "",
		"log":         s.config.Log,
	})
}
