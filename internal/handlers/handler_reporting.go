package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests for financial reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers routes related to reports.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/cash-flow", h.getCashFlowSummary)
	}
}

// getTrialBalance godoc
// @Summary Get the trial balance
// @Description Sums all posted journal lines up to asOf, grouped by account; total debits always equal total credits
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Report date (RFC 3339), defaults to now"
// @Success 200 {object} domain.TrialBalanceReport
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Warn("Invalid asOf date for trial balance", slog.String("asOf", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected RFC 3339"})
			return
		}
		asOf = parsed
	}

	report, err := h.reportingService.GetTrialBalance(c.Request.Context(), tenantID, asOf)
	if err != nil {
		respondError(c, err, "Failed to compute trial balance")
		return
	}

	c.JSON(http.StatusOK, report)
}

// getCashFlowSummary godoc
// @Summary Get a cash flow summary
// @Description Reports opening and closing cash balances and the net change over the window
// @Tags reports
// @Produce  json
// @Param   from query string true "Window start (RFC 3339)"
// @Param   to query string true "Window end (RFC 3339)"
// @Success 200 {object} domain.CashFlowSummary
// @Failure 400 {object} map[string]string "Invalid window"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /reports/cash-flow [get]
func (h *reportingHandler) getCashFlowSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		logger.Warn("Invalid from date for cash flow summary", slog.String("from", c.Query("from")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected RFC 3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		logger.Warn("Invalid to date for cash flow summary", slog.String("to", c.Query("to")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected RFC 3339"})
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Window end must not precede window start"})
		return
	}

	summary, err := h.reportingService.GetCashFlowSummary(c.Request.Context(), tenantID, from, to)
	if err != nil {
		respondError(c, err, "Failed to compute cash flow summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}
