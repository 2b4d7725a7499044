package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// fiscalPeriodHandler handles HTTP requests for fiscal periods.
type fiscalPeriodHandler struct {
	fiscalPeriodService portssvc.FiscalPeriodSvcFacade
}

func newFiscalPeriodHandler(fs portssvc.FiscalPeriodSvcFacade) *fiscalPeriodHandler {
	return &fiscalPeriodHandler{fiscalPeriodService: fs}
}

// registerFiscalPeriodRoutes registers routes related to fiscal periods.
func registerFiscalPeriodRoutes(rg *gin.RouterGroup, fiscalPeriodService portssvc.FiscalPeriodSvcFacade) {
	h := newFiscalPeriodHandler(fiscalPeriodService)

	periods := rg.Group("/fiscal-periods")
	{
		periods.POST("", h.createFiscalPeriod)
		periods.GET("", h.listFiscalPeriods)
		periods.POST("/:id/close", h.closeFiscalPeriod)
	}
}

// createFiscalPeriod godoc
// @Summary Open a fiscal period
// @Description Creates a new open fiscal period; ranges are inclusive and must not overlap
// @Tags fiscal-periods
// @Accept  json
// @Produce  json
// @Param   period body dto.CreateFiscalPeriodRequest true "Period details"
// @Success 201 {object} domain.FiscalPeriod
// @Failure 400 {object} map[string]string "Invalid range or overlap"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /fiscal-periods [post]
func (h *fiscalPeriodHandler) createFiscalPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFiscalPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFiscalPeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	period, err := h.fiscalPeriodService.CreateFiscalPeriod(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to create fiscal period")
		return
	}

	logger.Info("Fiscal period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	c.JSON(http.StatusCreated, period)
}

// listFiscalPeriods godoc
// @Summary List the tenant's fiscal periods
// @Tags fiscal-periods
// @Produce  json
// @Success 200 {array} domain.FiscalPeriod
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /fiscal-periods [get]
func (h *fiscalPeriodHandler) listFiscalPeriods(c *gin.Context) {
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	periods, err := h.fiscalPeriodService.ListFiscalPeriods(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to list fiscal periods")
		return
	}

	c.JSON(http.StatusOK, periods)
}

// closeFiscalPeriod godoc
// @Summary Close a fiscal period
// @Description Marks a period closed; closing is one-way and blocks further postings into the period
// @Tags fiscal-periods
// @Produce  json
// @Param   id path string true "Period ID"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Already closed"
// @Security BearerAuth
// @Router /fiscal-periods/{id}/close [post]
func (h *fiscalPeriodHandler) closeFiscalPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	period, err := h.fiscalPeriodService.CloseFiscalPeriod(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to close fiscal period")
		return
	}

	logger.Info("Fiscal period closed", slog.String("period_id", period.PeriodID))
	c.JSON(http.StatusOK, period)
}
