package handlers

import (
	"errors"
	"net/http"

	"daritana-compliance/export"
	"daritana-compliance/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// writeServiceError maps service errors onto the response envelope.
// Anything unrecognised is a 500 with failCode.
func writeServiceError(c *gin.Context, err error, failCode string) {
	switch {
	case errors.Is(err, service.ErrCheckNotFound),
		errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, service.ErrViolationNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, export.ErrUnsupportedFormat):
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, failCode, err.Error())
	}
}

// parseID reads a uuid path parameter, writing a 400 on failure
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}
