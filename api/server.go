// Package api serves articles over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/wikifeed/acquisition"
	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/config"
	"github.com/pevans/wikifeed/discovery"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/history"
	"github.com/pevans/wikifeed/wiki"
	"go.uber.org/zap"
)

// Service produces articles. *acquisition.Orchestrator implements it.
type Service interface {
	FetchArticle(ctx context.Context, mode feedmode.Mode) (*article.Article, error)
	FetchArticleWithSections(ctx context.Context, mode feedmode.Mode, includeSections bool) (*article.Article, error)
	ResetModeState()
	SetLocation(latitude, longitude float64)
	Modes() []feedmode.Definition
}

// Server is the HTTP API over a Service.
type Server struct {
	service Service
	history *history.Store
	config  *config.Config
	logger  *zap.Logger

	mu       sync.Mutex
	lastMode feedmode.Mode
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records every served article and mounts the history routes.
func WithHistory(store *history.Store) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithConfig mounts the read-only config route.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an API server.
func NewServer(service Service, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetupRouter configures the Gin router with all API routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.GET("/modes", s.HandleListModes)
	api.POST("/modes/reset", s.HandleResetModes)
	api.GET("/articles/next", s.HandleNextArticle)
	api.PUT("/location", s.HandleSetLocation)

	if s.history != nil {
		history.NewAPIServer(s.history).RegisterRoutes(api)
	}
	if s.config != nil {
		config.NewAPIServer(s.config).RegisterRoutes(api)
	}

	return router
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			s.logger.Error("HTTP request with errors", fields...)
			return
		}
		s.logger.Info("HTTP request", fields...)
	}
}

// ListModesResponse represents the response for GET /api/v1/modes.
type ListModesResponse struct {
	Modes []feedmode.Definition `json:"modes"`
}

// ArticleResponse represents the response for GET /api/v1/articles/next.
type ArticleResponse struct {
	*article.Article
	Mode        feedmode.Mode `json:"mode"`
	ReadingTime int           `json:"reading_time"`
}

// LocationRequest represents the request for PUT /api/v1/location.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	var transportErr *wiki.TransportError
	var statusErr *wiki.StatusError
	var decodeErr *wiki.DecodeError

	switch {
	case errors.Is(err, feedmode.ErrUnknownMode):
		c.JSON(http.StatusBadRequest, errorResponse("unknown_mode", err.Error()))
	case errors.Is(err, acquisition.ErrLocationRequired):
		c.JSON(http.StatusConflict, errorResponse("location_required", err.Error()))
	case errors.Is(err, acquisition.ErrNoQualifyingArticles),
		errors.Is(err, discovery.ErrSearchExhausted):
		c.JSON(http.StatusNotFound, errorResponse("no_articles", err.Error()))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, errorResponse("timeout", "Request timed out"))
	case errors.As(err, &transportErr), errors.As(err, &statusErr), errors.As(err, &decodeErr):
		c.JSON(http.StatusBadGateway, errorResponse("upstream_error", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListModes handles GET /api/v1/modes.
func (s *Server) HandleListModes(c *gin.Context) {
	c.JSON(http.StatusOK, ListModesResponse{Modes: s.service.Modes()})
}

// HandleResetModes handles POST /api/v1/modes/reset.
func (s *Server) HandleResetModes(c *gin.Context) {
	s.service.ResetModeState()
	c.Status(http.StatusNoContent)
}

// HandleNextArticle handles GET /api/v1/articles/next.
func (s *Server) HandleNextArticle(c *gin.Context) {
	mode := feedmode.Mode(strings.ToLower(strings.TrimSpace(c.DefaultQuery("mode", string(feedmode.Random)))))

	var sections *bool
	if raw := c.Query("sections"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "sections must be true or false"))
			return
		}
		sections = &include
	}

	if !s.knownMode(mode) {
		s.handleError(c, fmt.Errorf("%w: %q", feedmode.ErrUnknownMode, mode))
		return
	}

	s.switchMode(mode)

	var a *article.Article
	var err error
	if sections != nil {
		a, err = s.service.FetchArticleWithSections(c.Request.Context(), mode, *sections)
	} else {
		a, err = s.service.FetchArticle(c.Request.Context(), mode)
	}
	if err != nil {
		_ = c.Error(err)
		s.handleError(c, err)
		return
	}

	if s.history != nil {
		if _, err := s.history.Record(a, mode); err != nil {
			s.logger.Warn("Failed to record history",
				zap.String("article_id", a.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, ArticleResponse{
		Article:     a,
		Mode:        mode,
		ReadingTime: a.ReadingTime(),
	})
}

func (s *Server) knownMode(mode feedmode.Mode) bool {
	for _, def := range s.service.Modes() {
		if def.Mode == mode {
			return true
		}
	}
	return false
}

// switchMode resets buffered titles when a request moves to a different
// mode.
func (s *Server) switchMode(mode feedmode.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastMode != "" && s.lastMode != mode {
		s.logger.Debug("Feed mode changed",
			zap.String("from", string(s.lastMode)),
			zap.String("to", string(mode)),
		)
		s.service.ResetModeState()
	}
	s.lastMode = mode
}

// HandleSetLocation handles PUT /api/v1/location.
func (s *Server) HandleSetLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	lat, lon := *req.Latitude, *req.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "latitude must be within [-90, 90] and longitude within [-180, 180]"))
		return
	}

	s.service.SetLocation(lat, lon)
	c.JSON(http.StatusOK, gin.H{"latitude": lat, "longitude": lon})
}
