package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler serves balance queries over posted entries.
type reportingHandler struct {
	journalService portssvc.EntryReaderSvc
	clock          func() time.Time
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(js portssvc.EntryReaderSvc) *reportingHandler {
	return &reportingHandler{
		journalService: js,
		clock:          time.Now,
	}
}

// getAccountBalance godoc
// @Summary Get an account balance
// @Description Returns the balance on the account's normal side over posted and reversed entries dated within the range. Defaults to the current calendar year.
// @Tags reports
// @Produce json
// @Param id path string true "Account ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to calculate balance"
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *reportingHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.AccountBalanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid balance query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	year := h.clock().UTC().Year()
	from, to := domain.YearStart(year), domain.YearEnd(year)
	if params.From != nil {
		from = domain.DateOnly(*params.From)
	}
	if params.To != nil {
		to = domain.DateOnly(*params.To)
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	logger = logger.With(
		slog.String("account_id", accountID),
		slog.String("from", from.Format(time.DateOnly)),
		slog.String("to", to.Format(time.DateOnly)),
	)

	balance, err := h.journalService.AccountBalance(c.Request.Context(), tenantID, accountID, from, to)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to calculate balance")
		return
	}

	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID: accountID,
		From:      from,
		To:        to,
		Balance:   balance,
	})
}
