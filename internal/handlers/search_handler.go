package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/sirupsen/logrus"
)

// Searcher runs the unified station and stop search
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error)
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	search Searcher
	logger *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search Searcher, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

// Search handles GET /api/v1/search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	resp, err := h.search.Search(c.Request.Context(), c.Query("q"), 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, resp)
}
