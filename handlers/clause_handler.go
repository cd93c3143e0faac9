package handlers

import (
	"net/http"
	"strings"

	"daritana-compliance/clauses"
	"daritana-compliance/models"

	"github.com/gin-gonic/gin"
)

// ClauseHandler serves read-only queries over the clause table
type ClauseHandler struct {
	clauses *clauses.Repository
}

// NewClauseHandler creates a new clause handler
func NewClauseHandler(repo *clauses.Repository) *ClauseHandler {
	return &ClauseHandler{clauses: repo}
}

// Register mounts the clause routes
func (h *ClauseHandler) Register(api *gin.RouterGroup) {
	api.GET("/compliance/clauses", h.SearchClauses)
	api.GET("/compliance/clauses/:id", h.GetClause)
	api.GET("/compliance/sections", h.ListSections)
}

// SearchClauses handles GET /api/compliance/clauses
func (h *ClauseHandler) SearchClauses(c *gin.Context) {
	query := clauses.ClauseQuery{
		Text:     c.Query("search"),
		Section:  c.Query("section"),
		Category: models.ClauseCategory(strings.ToLower(c.Query("category"))),
	}

	if bt := strings.ToLower(strings.TrimSpace(c.Query("buildingType"))); bt != "" {
		query.BuildingType = models.BuildingType(bt)
		if !query.BuildingType.IsValid() {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Unknown building type: "+bt)
			return
		}
	}
	if query.Category != "" && !query.Category.IsValid() {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Unknown clause category: "+string(query.Category))
		return
	}

	results := h.clauses.Search(query)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
		"total":   len(results),
	})
}

// GetClause handles GET /api/compliance/clauses/:id
func (h *ClauseHandler) GetClause(c *gin.Context) {
	clause, ok := h.clauses.GetByID(strings.ToUpper(c.Param("id")))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Clause not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    clause,
	})
}

// ListSections handles GET /api/compliance/sections
func (h *ClauseHandler) ListSections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.clauses.Sections(),
	})
}
