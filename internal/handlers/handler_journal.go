package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/finbooks/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks/finbooks_backend/internal/dto"
	"github.com/finbooks/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests for manual journals and the journal
// read side.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers routes related to journals.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:id", h.getJournal)
		journals.POST("/:id/submit", h.submitJournal)
		journals.POST("/:id/approve", h.approveJournal)
		journals.POST("/:id/post", h.postJournal)
		journals.POST("/:id/cancel", h.cancelJournal)
		journals.POST("/:id/reverse", h.reverseJournal)
	}
}

// createJournal godoc
// @Summary Create a draft manual journal
// @Description Creates a balanced manual journal in DRAFT status, denominated in the tenant's base currency
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journal body dto.CreateJournalRequest true "Journal details"
// @Success 201 {object} domain.Journal
// @Failure 400 {object} map[string]string "Invalid input or unbalanced lines"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /journals [post]
func (h *journalHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	journal, err := h.journalService.CreateManualJournal(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to create journal")
		return
	}

	logger.Info("Manual journal created", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, journal)
}

// getJournal godoc
// @Summary Get a journal by ID
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Security BearerAuth
// @Router /journals/{id} [get]
func (h *journalHandler) getJournal(c *gin.Context) {
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	journal, err := h.journalService.GetJournalByID(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve journal")
		return
	}

	c.JSON(http.StatusOK, journal)
}

// listJournals godoc
// @Summary List the tenant's journals
// @Tags journals
// @Produce  json
// @Param   sourceType query string false "Filter by source type"
// @Param   status query string false "Filter by status"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListJournalsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := identityFromContext(c)
	if !ok {
		return
	}

	var params dto.ListJournalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListJournals", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.journalService.ListJournals(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, err, "Failed to list journals")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// submitJournal godoc
// @Summary Submit a manual journal for approval
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 422 {object} map[string]string "Illegal transition or source-generated journal"
// @Security BearerAuth
// @Router /journals/{id}/submit [post]
func (h *journalHandler) submitJournal(c *gin.Context) {
	h.transition(c, h.journalService.SubmitJournal, "Failed to submit journal")
}

// approveJournal godoc
// @Summary Approve a submitted manual journal
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Self-approval not allowed"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 422 {object} map[string]string "Illegal transition"
// @Security BearerAuth
// @Router /journals/{id}/approve [post]
func (h *journalHandler) approveJournal(c *gin.Context) {
	h.transition(c, h.journalService.ApproveJournal, "Failed to approve journal")
}

// postJournal godoc
// @Summary Post an approved manual journal
// @Description Applies the journal's balance changes to its accounts atomically with the status change
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 409 {object} map[string]string "Already posted"
// @Failure 422 {object} map[string]string "Illegal transition or closed period"
// @Security BearerAuth
// @Router /journals/{id}/post [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	h.transition(c, h.journalService.PostJournal, "Failed to post journal")
}

// cancelJournal godoc
// @Summary Cancel a pre-posting manual journal
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 422 {object} map[string]string "Illegal transition"
// @Security BearerAuth
// @Router /journals/{id}/cancel [post]
func (h *journalHandler) cancelJournal(c *gin.Context) {
	h.transition(c, h.journalService.CancelJournal, "Failed to cancel journal")
}

// reverseJournal godoc
// @Summary Reverse a posted journal
// @Description Creates and posts a mirror journal that backs out the original, then links the two
// @Tags journals
// @Produce  json
// @Param   id path string true "Journal ID"
// @Success 201 {object} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 409 {object} map[string]string "Already reversed"
// @Failure 422 {object} map[string]string "Journal is not posted or period is closed"
// @Security BearerAuth
// @Router /journals/{id}/reverse [post]
func (h *journalHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	reversing, err := h.journalService.ReverseJournal(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to reverse journal")
		return
	}

	logger.Info("Journal reversed", slog.String("journal_id", c.Param("id")), slog.String("reversing_journal_id", reversing.JournalID))
	c.JSON(http.StatusCreated, reversing)
}

func (h *journalHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, journalID, userID string) (*domain.Journal, error), fallbackMsg string) {
	tenantID, userID, ok := identityFromContext(c)
	if !ok {
		return
	}

	journal, err := fn(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		respondError(c, err, fallbackMsg)
		return
	}

	c.JSON(http.StatusOK, journal)
}
