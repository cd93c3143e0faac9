package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"daritana-compliance/export"
	"daritana-compliance/models"
	"daritana-compliance/service"

	"github.com/gin-gonic/gin"
)

// ComplianceHandler handles HTTP requests for compliance checks and reports
type ComplianceHandler struct {
	complianceService *service.ComplianceService
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(complianceService *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{complianceService: complianceService}
}

// Register mounts the check and report routes
func (h *ComplianceHandler) Register(api *gin.RouterGroup) {
	api.POST("/compliance/checks", h.CreateCheck)
	api.GET("/compliance/checks", h.ListChecks)
	api.GET("/compliance/checks/:id", h.GetCheck)
	api.PATCH("/compliance/checks/:id/status", h.UpdateCheckStatus)
	api.POST("/compliance/checks/:id/violations", h.AddViolation)
	api.DELETE("/compliance/checks/:id/violations/:clauseId", h.ResolveViolation)
	api.GET("/compliance/checks/:id/report", h.GenerateReport)
	api.GET("/compliance/checks/:id/reports", h.ListReports)
	api.GET("/compliance/reports/:id", h.GetReport)
	api.GET("/compliance/reports/:id/export", h.ExportReport)
	api.GET("/compliance/stats", h.Stats)
}

// CreateCheckRequest represents the request body for running a compliance check
type CreateCheckRequest struct {
	ProjectID      string  `json:"projectId" binding:"required"`
	ProjectName    string  `json:"projectName"`
	BuildingType   string  `json:"buildingType" binding:"required"`
	BuildingHeight float64 `json:"buildingHeight"`
	FloorArea      float64 `json:"floorArea"`
	Occupancy      int     `json:"occupancy"`
}

// CreateCheck handles POST /api/compliance/checks
func (h *ComplianceHandler) CreateCheck(c *gin.Context) {
	var req CreateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.complianceService.RunComplianceCheck(c.Request.Context(), service.RunComplianceCheckRequest{
		ProjectID:   req.ProjectID,
		ProjectName: req.ProjectName,
		Building: models.BuildingParameters{
			Type:      models.BuildingType(strings.ToLower(strings.TrimSpace(req.BuildingType))),
			Height:    req.BuildingHeight,
			FloorArea: req.FloorArea,
			Occupancy: req.Occupancy,
		},
	})
	if err != nil {
		writeServiceError(c, err, "CHECK_FAILED")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Check,
	})
}

// ListChecks handles GET /api/compliance/checks
func (h *ComplianceHandler) ListChecks(c *gin.Context) {
	result, err := h.complianceService.ListChecks(c.Request.Context(), service.ListChecksRequest{
		ProjectID: c.Query("projectId"),
	})
	if err != nil {
		writeServiceError(c, err, "LIST_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Checks,
	})
}

// GetCheck handles GET /api/compliance/checks/:id
func (h *ComplianceHandler) GetCheck(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.complianceService.GetCheck(c.Request.Context(), service.GetCheckRequest{ID: id})
	if err != nil {
		writeServiceError(c, err, "GET_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Check,
	})
}

// UpdateCheckStatusRequest represents the request body for a reviewer status override
type UpdateCheckStatusRequest struct {
	Status   string  `json:"status" binding:"required"`
	Reviewer *string `json:"reviewer"`
	Comments *string `json:"comments"`
}

// UpdateCheckStatus handles PATCH /api/compliance/checks/:id/status
func (h *ComplianceHandler) UpdateCheckStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCheckStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.complianceService.UpdateCheckStatus(c.Request.Context(), service.UpdateCheckStatusRequest{
		ID:       id,
		Status:   models.CheckStatus(req.Status),
		Reviewer: req.Reviewer,
		Comments: req.Comments,
	})
	if err != nil {
		writeServiceError(c, err, "UPDATE_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Check,
	})
}

// AddViolationRequest represents the request body for a manual violation
type AddViolationRequest struct {
	ClauseID    string `json:"clauseId" binding:"required"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// AddViolation handles POST /api/compliance/checks/:id/violations
func (h *ComplianceHandler) AddViolation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AddViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.complianceService.AddViolation(c.Request.Context(), service.AddViolationRequest{
		CheckID: id,
		Violation: models.Violation{
			ClauseID:    req.ClauseID,
			Severity:    models.Severity(strings.ToLower(req.Severity)),
			Description: req.Description,
		},
	})
	if err != nil {
		writeServiceError(c, err, "UPDATE_FAILED")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Check,
	})
}

// ResolveViolation handles DELETE /api/compliance/checks/:id/violations/:clauseId
func (h *ComplianceHandler) ResolveViolation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.complianceService.ResolveViolation(c.Request.Context(), service.ResolveViolationRequest{
		CheckID:  id,
		ClauseID: c.Param("clauseId"),
	})
	if err != nil {
		writeServiceError(c, err, "UPDATE_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Check,
	})
}

// GenerateReport handles GET /api/compliance/checks/:id/report
func (h *ComplianceHandler) GenerateReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	req := service.GenerateReportRequest{CheckID: id}
	if certifiedBy, ok := c.GetQuery("certifiedBy"); ok {
		req.CertifiedBy = &certifiedBy
	}

	result, err := h.complianceService.GenerateReport(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "REPORT_FAILED")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Report,
	})
}

// ListReports handles GET /api/compliance/checks/:id/reports
func (h *ComplianceHandler) ListReports(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.complianceService.ListReports(c.Request.Context(), service.ListReportsRequest{CheckID: id})
	if err != nil {
		writeServiceError(c, err, "LIST_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Reports,
	})
}

// GetReport handles GET /api/compliance/reports/:id
func (h *ComplianceHandler) GetReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.complianceService.GetReport(c.Request.Context(), service.GetReportRequest{ID: id})
	if err != nil {
		writeServiceError(c, err, "GET_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Report,
	})
}

// ExportReport handles GET /api/compliance/reports/:id/export
func (h *ComplianceHandler) ExportReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}

	result, err := h.complianceService.ExportReport(c.Request.Context(), service.ExportReportRequest{
		ReportID: id,
		Format:   format,
	})
	if err != nil {
		writeServiceError(c, err, "EXPORT_FAILED")
		return
	}

	if result.StoragePath != "" {
		c.Header("X-Storage-Path", result.StoragePath)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Artifact.Filename))
	c.Data(http.StatusOK, result.Artifact.ContentType, result.Artifact.Data)
}

// Stats handles GET /api/compliance/stats
func (h *ComplianceHandler) Stats(c *gin.Context) {
	result, err := h.complianceService.Stats(c.Request.Context(), service.StatsRequest{
		ProjectID: c.Query("projectId"),
	})
	if err != nil {
		writeServiceError(c, err, "STATS_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Stats,
	})
}
