package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journals and their entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: journalService,
	}
}

// registerJournalRoutes registers journal (book) and journal entry routes.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.DELETE("/:id", h.deactivateJournal)
	}

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createDraft)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.PUT("/:id", h.updateDraft)
		entries.DELETE("/:id", h.deleteDraft)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// createJournal godoc
// @Summary Create a journal
// @Description Creates a journal (book) of type SALES, PURCHASE, BANK or GENERAL
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   journal body dto.CreateJournalRequest true "Journal details"
// @Success 201 {object} domain.Journal
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Journal code already exists"
// @Failure 500 {object} map[string]string "Failed to create journal"
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

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	journal, err := h.journalService.CreateJournal(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create journal")
		return
	}

	logger.Info("Journal created successfully", slog.String("journal_id", journal.JournalID))
	c.JSON(http.StatusCreated, journal)
}

// listJournals godoc
// @Summary List journals
// @Tags journals
// @Produce  json
// @Success 200 {array} domain.Journal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list journals"
// @Security BearerAuth
// @Router /journals [get]
func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	journals, err := h.journalService.ListJournals(c.Request.Context(), tenantID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list journals")
		return
	}
	c.JSON(http.StatusOK, journals)
}

// deactivateJournal godoc
// @Summary Deactivate a journal
// @Tags journals
// @Param   id path string true "Journal ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Journal not found"
// @Failure 500 {object} map[string]string "Failed to deactivate journal"
// @Security BearerAuth
// @Router /journals/{id} [delete]
func (h *journalHandler) deactivateJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	journalID := c.Param("id")
	if err := h.journalService.DeactivateJournal(c.Request.Context(), tenantID, journalID, userID); err != nil {
		handleServiceError(c, logger.With(slog.String("journal_id", journalID)), err, "Failed to deactivate journal")
		return
	}
	c.Status(http.StatusNoContent)
}

// createDraft godoc
// @Summary Create a draft journal entry
// @Description Drafts are validated line by line but need not balance until posted.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateDraftRequest true "Entry header and lines"
// @Success 201 {object} domain.JournalEntry
// @Failure 400 {object} map[string]string "Invalid line or unknown account"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create draft"
// @Security BearerAuth
// @Router /entries [post]
func (h *journalHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger.Info("Received request to create draft", slog.String("reference", req.Reference), slog.Int("line_count", len(req.Lines)))

	entry, err := h.journalService.CreateDraft(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create draft")
		return
	}

	logger.Info("Draft created successfully", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, entry)
}

// listEntries godoc
// @Summary List journal entries
// @Description Newest first. Pass nextToken from the previous page to continue.
// @Tags entries
// @Produce  json
// @Param   status query string false "DRAFT, POSTED or REVERSED"
// @Param   journalID query string false "Journal ID"
// @Param   from query string false "Start date (YYYY-MM-DD)"
// @Param   to query string false "End date (YYYY-MM-DD)"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Security BearerAuth
// @Router /entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), tenantID, params)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getEntry godoc
// @Summary Get a journal entry
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	entryID := c.Param("id")
	entry, err := h.journalService.GetEntry(c.Request.Context(), tenantID, entryID)
	if err != nil {
		handleServiceError(c, logger.With(slog.String("entry_id", entryID)), err, "Failed to retrieve entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// updateDraft godoc
// @Summary Replace a draft entry
// @Description Replaces header and lines. Only drafts can be edited.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   entry body dto.UpdateDraftRequest true "Entry header and lines"
// @Success 200 {object} domain.JournalEntry
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is no longer a draft"
// @Failure 500 {object} map[string]string "Failed to update draft"
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *journalHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDraft", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))
	entry, err := h.journalService.UpdateDraft(c.Request.Context(), tenantID, entryID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to update draft")
		return
	}

	logger.Info("Draft updated successfully")
	c.JSON(http.StatusOK, entry)
}

// deleteDraft godoc
// @Summary Delete a draft entry
// @Tags entries
// @Param   id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is no longer a draft"
// @Failure 500 {object} map[string]string "Failed to delete draft"
// @Security BearerAuth
// @Router /entries/{id} [delete]
func (h *journalHandler) deleteDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))
	if err := h.journalService.DeleteDraft(c.Request.Context(), tenantID, entryID, userID); err != nil {
		handleServiceError(c, logger, err, "Failed to delete draft")
		return
	}

	logger.Info("Draft deleted successfully")
	c.Status(http.StatusNoContent)
}

// postEntry godoc
// @Summary Post a draft entry
// @Description Validates balance, account state and the period lock, then makes the entry immutable.
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 400 {object} map[string]string "Fewer than two lines or invalid line"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Period closed, year closed, concurrent post or not a draft"
// @Failure 422 {object} map[string]string "Entry does not balance"
// @Failure 500 {object} map[string]string "Failed to post entry"
// @Security BearerAuth
// @Router /entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))
	logger.Info("Received request to post entry")

	entry, err := h.journalService.Post(c.Request.Context(), tenantID, entryID, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to post entry")
		return
	}

	logger.Info("Entry posted successfully")
	c.JSON(http.StatusOK, entry)
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Posts a compensating entry with debits and credits swapped. The reversal date defaults to the source entry date.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest false "Optional reversal date"
// @Success 201 {object} domain.JournalEntry
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Already reversed, not posted or period closed"
// @Failure 500 {object} map[string]string "Failed to reverse entry"
// @Security BearerAuth
// @Router /entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReverseEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var reversalDate time.Time
	if req.ReversalDate != nil {
		reversalDate = *req.ReversalDate
	}

	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))
	logger.Info("Received request to reverse entry")

	reversal, err := h.journalService.Reverse(c.Request.Context(), tenantID, entryID, userID, reversalDate)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to reverse entry")
		return
	}

	logger.Info("Entry reversed successfully", slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, reversal)
}
