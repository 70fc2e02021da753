package history

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/wikifeed/feedmode"
)

// APIServer exposes the history store over HTTP.
type APIServer struct {
	store *Store
}

// NewAPIServer creates a history API server.
func NewAPIServer(store *Store) *APIServer {
	return &APIServer{store: store}
}

// RegisterRoutes mounts the history routes on group.
func (s *APIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/history", s.HandleListHistory)
	group.GET("/history/:id", s.HandleGetEntry)
	group.DELETE("/history/:id", s.HandleDeleteEntry)
	group.DELETE("/history", s.HandleClearHistory)
}

// ListHistoryResponse represents the response for GET /history.
type ListHistoryResponse struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// ClearHistoryResponse represents the response for DELETE /history.
type ClearHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func (s *APIServer) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleListHistory handles GET /history.
func (s *APIServer) HandleListHistory(c *gin.Context) {
	filter := Filter{Limit: 50}

	if modeParam := c.Query("mode"); modeParam != "" {
		mode := feedmode.Mode(modeParam)
		filter.Mode = &mode
	}

	if sinceParam := c.Query("since"); sinceParam != "" {
		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "since must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = &since
	}

	var err error
	if filter.Limit, err = intParam(c, "limit", filter.Limit); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}
	if filter.Offset, err = intParam(c, "offset", 0); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}

	entries, err := s.store.List(filter)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	c.JSON(http.StatusOK, ListHistoryResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// HandleGetEntry handles GET /history/{id}.
func (s *APIServer) HandleGetEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid entry ID"))
		return
	}

	entry, err := s.store.Get(entryID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// HandleDeleteEntry handles DELETE /history/{id}.
func (s *APIServer) HandleDeleteEntry(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid entry ID"))
		return
	}

	if err := s.store.Delete(entryID); err != nil {
		s.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleClearHistory handles DELETE /history.
func (s *APIServer) HandleClearHistory(c *gin.Context) {
	deleted, err := s.store.Clear()
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ClearHistoryResponse{Deleted: deleted})
}

// intParam reads a non-negative integer query parameter.
func intParam(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
