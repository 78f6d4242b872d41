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

// periodHandler handles monthly period locks and fiscal year closing.
type periodHandler struct {
	periodService  portssvc.PeriodSvcFacade
	yearEndService portssvc.YearEndSvcFacade
}

func newPeriodHandler(ps portssvc.PeriodSvcFacade, ys portssvc.YearEndSvcFacade) *periodHandler {
	return &periodHandler{periodService: ps, yearEndService: ys}
}

// registerPeriodRoutes registers period and fiscal year routes.
func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade, yearEndService portssvc.YearEndSvcFacade) {
	h := newPeriodHandler(periodService, yearEndService)

	periods := rg.Group("/periods")
	{
		periods.GET("/open", h.isPeriodOpen)
		periods.GET("/:year/:month", h.getPeriodStatus)
		periods.POST("/:year/:month/close", h.closePeriod)
		periods.POST("/:year/:month/reopen", h.reopenPeriod)
	}

	years := rg.Group("/years")
	{
		years.POST("/:year/close", h.closeYear)
		years.POST("/:year/opening-balances", h.generateOpeningBalances)
		years.GET("/:year/closure", h.getYearEndClosure)
		years.GET("/:year/income-summary", h.getIncomeSummary)
	}
}

// yearMonth parses the :year and :month path parameters.
func yearMonth(c *gin.Context, logger *slog.Logger) (int, int, bool) {
	year, ok := pathInt(c, logger, "year")
	if !ok {
		return 0, 0, false
	}
	month, ok := pathInt(c, logger, "month")
	if !ok {
		return 0, 0, false
	}
	return year, month, true
}

// isPeriodOpen godoc
// @Summary Check whether entries may be posted on a date
// @Tags periods
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{} "date and isOpen"
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /periods/open [get]
func (h *periodHandler) isPeriodOpen(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	raw := c.Query("date")
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		logger.Warn("Invalid date format", slog.String("date", raw))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	open, err := h.periodService.IsPeriodOpen(c.Request.Context(), tenantID, date)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to check period")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": raw, "isOpen": open})
}

// getPeriodStatus godoc
// @Summary Get the lock status and history of a month
// @Tags periods
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} domain.PeriodStatus
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /periods/{year}/{month} [get]
func (h *periodHandler) getPeriodStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c, logger)
	if !ok {
		return
	}

	status, err := h.periodService.GetPeriodStatus(c.Request.Context(), tenantID, year, month)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get period status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// closePeriod godoc
// @Summary Close a month
// @Description Fails while drafts dated in the month remain.
// @Tags periods
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Success 200 {object} domain.PeriodClosure
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Already closed, drafts remain or year closed"
// @Failure 500 {object} map[string]string "Failed to close period"
// @Security BearerAuth
// @Router /periods/{year}/{month}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.Int("year", year), slog.Int("month", month))
	logger.Info("Received request to close period")

	closure, err := h.periodService.ClosePeriod(c.Request.Context(), tenantID, year, month, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to close period")
		return
	}

	logger.Info("Period closed successfully")
	c.JSON(http.StatusOK, closure)
}

// reopenPeriod godoc
// @Summary Reopen a closed month
// @Tags periods
// @Accept json
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month (1-12)"
// @Param reopen body dto.ReopenPeriodRequest true "Reason for reopening"
// @Success 200 {object} domain.PeriodReopen
// @Failure 400 {object} map[string]string "Invalid period or missing reason"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Period not closed or year closed"
// @Failure 500 {object} map[string]string "Failed to reopen period"
// @Security BearerAuth
// @Router /periods/{year}/{month}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReopenPeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, month, ok := yearMonth(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.Int("year", year), slog.Int("month", month))
	logger.Info("Received request to reopen period")

	reopen, err := h.periodService.ReopenPeriod(c.Request.Context(), tenantID, year, month, userID, req.Reason)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to reopen period")
		return
	}

	logger.Info("Period reopened successfully")
	c.JSON(http.StatusOK, reopen)
}

// closeYear godoc
// @Summary Close a fiscal year
// @Description Requires all twelve months closed and the prior year closed. Posts the closing entry into retained earnings and closes the year permanently.
// @Tags years
// @Produce json
// @Param year path int true "Fiscal year"
// @Success 200 {object} domain.YearEndClosure
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Months open, prior year open or already closed"
// @Failure 500 {object} map[string]string "Failed to close year"
// @Security BearerAuth
// @Router /years/{year}/close [post]
func (h *periodHandler) closeYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, ok := pathInt(c, logger, "year")
	if !ok {
		return
	}

	logger = logger.With(slog.Int("year", year))
	logger.Info("Received request to close fiscal year")

	closure, err := h.yearEndService.CloseYear(c.Request.Context(), tenantID, year, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to close year")
		return
	}

	logger.Info("Fiscal year closed successfully", slog.String("net_income", closure.NetIncome.String()))
	c.JSON(http.StatusOK, closure)
}

// generateOpeningBalances godoc
// @Summary Carry balance sheet accounts into the next year
// @Description Posts the opening entry on January 1 of year+1 from the closed year's balances.
// @Tags years
// @Produce json
// @Param year path int true "Closed fiscal year"
// @Success 201 {object} domain.JournalEntry
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Year not closed or opening balances already generated"
// @Failure 500 {object} map[string]string "Failed to generate opening balances"
// @Security BearerAuth
// @Router /years/{year}/opening-balances [post]
func (h *periodHandler) generateOpeningBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, ok := pathInt(c, logger, "year")
	if !ok {
		return
	}

	logger = logger.With(slog.Int("year", year))
	entry, err := h.yearEndService.GenerateOpeningBalances(c.Request.Context(), tenantID, year, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to generate opening balances")
		return
	}

	logger.Info("Opening balances generated", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, entry)
}

// getYearEndClosure godoc
// @Summary Get the closure record of a fiscal year
// @Tags years
// @Produce json
// @Param year path int true "Fiscal year"
// @Success 200 {object} domain.YearEndClosure
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Year not closed"
// @Security BearerAuth
// @Router /years/{year}/closure [get]
func (h *periodHandler) getYearEndClosure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, ok := pathInt(c, logger, "year")
	if !ok {
		return
	}

	closure, err := h.yearEndService.GetYearEndClosure(c.Request.Context(), tenantID, year)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get year-end closure")
		return
	}
	c.JSON(http.StatusOK, closure)
}

// getIncomeSummary godoc
// @Summary Get the profit and loss of a fiscal year
// @Tags years
// @Produce json
// @Param year path int true "Fiscal year"
// @Success 200 {object} domain.IncomeSummary
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute income summary"
// @Security BearerAuth
// @Router /years/{year}/income-summary [get]
func (h *periodHandler) getIncomeSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}
	year, ok := pathInt(c, logger, "year")
	if !ok {
		return
	}

	summary, err := h.yearEndService.IncomeSummary(c.Request.Context(), tenantID, year)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to compute income summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
