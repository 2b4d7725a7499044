package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// auditHandler handles HTTP requests for the audit trail read side.
type auditHandler struct {
	auditService portssvc.AuditSvcFacade
}

func newAuditHandler(as portssvc.AuditSvcFacade) *auditHandler {
	return &auditHandler{auditService: as}
}

// registerAuditRoutes registers routes related to the audit log.
func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditSvcFacade) {
	h := newAuditHandler(auditService)

	audit := rg.Group("/audit-log")
	{
		audit.GET("", h.listAuditLog)
		audit.GET("/stats", h.getAuditStats)
	}
}

// listAuditLog godoc
// @Summary List audit entries
// @Description Pages through the tenant's audit trail, newest first, with optional entity, action, user and time filters
// @Tags audit
// @Produce  json
// @Param   entity query string false "Filter by entity"
// @Param   entityID query string false "Filter by entity ID"
// @Param   action query string false "Filter by action"
// @Param   userID query string false "Filter by acting user"
// @Param   from query string false "Window start (RFC 3339)"
// @Param   to query string false "Window end (RFC 3339)"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListAuditLogResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /audit-log [get]
func (h *auditHandler) listAuditLog(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	var params dto.ListAuditLogParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListAuditLog", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.auditService.ListEntries(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, err, "Failed to list audit entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getAuditStats godoc
// @Summary Get audit statistics
// @Description Aggregates counts by action, entity and user plus a daily timeline over the window, defaulting to the last 30 days
// @Tags audit
// @Produce  json
// @Param   from query string false "Window start (RFC 3339)"
// @Param   to query string false "Window end (RFC 3339)"
// @Success 200 {object} domain.AuditStats
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /audit-log/stats [get]
func (h *auditHandler) getAuditStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	var params dto.AuditStatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GetAuditStats", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	stats, err := h.auditService.GetStats(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, err, "Failed to compute audit statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
