package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

// bankHandler handles bank connections, statement import and matching.
type bankHandler struct {
	bankService  portssvc.BankSvcFacade
	lookbackDays int
	clock        func() time.Time
}

func newBankHandler(bs portssvc.BankSvcFacade, lookbackDays int) *bankHandler {
	if lookbackDays <= 0 {
		lookbackDays = 14
	}
	return &bankHandler{bankService: bs, lookbackDays: lookbackDays, clock: time.Now}
}

// registerBankRoutes registers bank connection and bank transaction routes.
func registerBankRoutes(rg *gin.RouterGroup, bankService portssvc.BankSvcFacade, lookbackDays int) {
	h := newBankHandler(bankService, lookbackDays)

	connections := rg.Group("/bank/connections")
	{
		connections.POST("", h.createConnection)
		connections.GET("", h.listConnections)
		connections.GET("/:id", h.getConnection)
		connections.POST("/:id/consent", h.initiateConsent)
		connections.POST("/:id/activate", h.activateConnection)
		connections.POST("/:id/sync", h.sync)
		connections.POST("/:id/automatch", h.autoMatchUnmatched)
		connections.GET("/:id/reconciliation", h.reconcile)
	}

	transactions := rg.Group("/bank/transactions")
	{
		transactions.GET("", h.listTransactions)
		transactions.POST("/:id/automatch", h.autoMatch)
		transactions.POST("/:id/match", h.manualMatch)
		transactions.POST("/:id/ignore", h.ignore)
		transactions.GET("/:id/suggestions", h.suggestMatches)
	}
}

// createConnection godoc
// @Summary Link a bank account
// @Description Creates a Pending connection mapped to an Asset ledger account. Only the masked IBAN is stored.
// @Tags bank
// @Accept json
// @Produce json
// @Param connection body dto.CreateBankConnectionRequest true "Connection"
// @Success 201 {object} domain.BankConnection
// @Failure 400 {object} map[string]string "Invalid input or ledger account is not an asset"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create bank connection"
// @Security BearerAuth
// @Router /bank/connections [post]
func (h *bankHandler) createConnection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBankConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateConnection", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	conn, err := h.bankService.CreateConnection(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to create bank connection")
		return
	}

	logger.Info("Bank connection created", slog.String("connection_id", conn.ConnectionID), slog.String("iban", conn.MaskedIBAN))
	c.JSON(http.StatusCreated, conn)
}

// listConnections godoc
// @Summary List bank connections
// @Tags bank
// @Produce json
// @Success 200 {array} domain.BankConnection
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /bank/connections [get]
func (h *bankHandler) listConnections(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	conns, err := h.bankService.ListConnections(c.Request.Context(), tenantID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list bank connections")
		return
	}
	c.JSON(http.StatusOK, conns)
}

// getConnection godoc
// @Summary Get a bank connection
// @Tags bank
// @Produce json
// @Param id path string true "Connection ID"
// @Success 200 {object} domain.BankConnection
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Security BearerAuth
// @Router /bank/connections/{id} [get]
func (h *bankHandler) getConnection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	conn, err := h.bankService.GetConnection(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get bank connection")
		return
	}
	c.JSON(http.StatusOK, conn)
}

// initiateConsent godoc
// @Summary Start the provider consent flow
// @Tags bank
// @Produce json
// @Param id path string true "Connection ID"
// @Success 200 {object} dto.ConsentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Security BearerAuth
// @Router /bank/connections/{id}/consent [post]
func (h *bankHandler) initiateConsent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	connectionID := c.Param("id")
	consentURL, err := h.bankService.InitiateConsent(c.Request.Context(), tenantID, connectionID)
	if err != nil {
		handleServiceError(c, logger.With(slog.String("connection_id", connectionID)), err, "Failed to initiate consent")
		return
	}
	c.JSON(http.StatusOK, dto.ConsentResponse{ConnectionID: connectionID, ConsentURL: consentURL})
}

// activateConnection godoc
// @Summary Activate a connection after consent was granted
// @Tags bank
// @Produce json
// @Param id path string true "Connection ID"
// @Success 200 {object} domain.BankConnection
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Failure 409 {object} map[string]string "Connection revoked"
// @Security BearerAuth
// @Router /bank/connections/{id}/activate [post]
func (h *bankHandler) activateConnection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	conn, err := h.bankService.ActivateConnection(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to activate bank connection")
		return
	}

	logger.Info("Bank connection activated", slog.String("connection_id", conn.ConnectionID))
	c.JSON(http.StatusOK, conn)
}

// sync godoc
// @Summary Import statement lines from the provider
// @Description Deduplicates on the provider's transaction id. Defaults to the configured lookback window ending today.
// @Tags bank
// @Accept json
// @Produce json
// @Param id path string true "Connection ID"
// @Param range body dto.SyncRequest false "Booking date range"
// @Success 200 {object} domain.SyncResult
// @Failure 400 {object} map[string]string "Invalid range"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Failure 409 {object} map[string]string "Connection cannot sync"
// @Failure 502 {object} domain.SyncResult "Provider failure"
// @Security BearerAuth
// @Router /bank/connections/{id}/sync [post]
func (h *bankHandler) sync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for Sync", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	to := domain.DateOnly(h.clock())
	if req.To != nil {
		to = domain.DateOnly(*req.To)
	}
	from := to.AddDate(0, 0, -h.lookbackDays)
	if req.From != nil {
		from = domain.DateOnly(*req.From)
	}

	connectionID := c.Param("id")
	logger = logger.With(slog.String("connection_id", connectionID))
	logger.Info("Received request to sync bank connection",
		slog.String("from", from.Format(time.DateOnly)), slog.String("to", to.Format(time.DateOnly)))

	result, err := h.bankService.Sync(c.Request.Context(), tenantID, connectionID, from, to, userID)
	if err != nil {
		if result != nil && result.Status == domain.SyncFailed {
			logger.Warn("Bank sync failed", slog.String("error", err.Error()))
			c.JSON(apperrors.HTTPStatus(err), result)
			return
		}
		handleServiceError(c, logger, err, "Failed to sync bank connection")
		return
	}

	logger.Info("Bank sync finished", slog.Int("imported", result.Imported), slog.Int("updated", result.Updated))
	c.JSON(http.StatusOK, result)
}

// autoMatchUnmatched godoc
// @Summary Auto-match every unmatched transaction of a connection
// @Tags bank
// @Produce json
// @Param id path string true "Connection ID"
// @Success 200 {array} domain.AutoMatchResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Security BearerAuth
// @Router /bank/connections/{id}/automatch [post]
func (h *bankHandler) autoMatchUnmatched(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	results, err := h.bankService.AutoMatchUnmatched(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to auto-match transactions")
		return
	}
	c.JSON(http.StatusOK, results)
}

// reconcile godoc
// @Summary Reconcile a connection over a date range
// @Description Compares opening balance plus transactions with the provider's closing balance.
// @Tags bank
// @Produce json
// @Param id path string true "Connection ID"
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} domain.BankReconciliation
// @Failure 400 {object} map[string]string "Invalid range"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Connection not found"
// @Failure 502 {object} map[string]string "Provider failure"
// @Security BearerAuth
// @Router /bank/connections/{id}/reconciliation [get]
func (h *bankHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ReconcileParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for Reconcile", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	rec, err := h.bankService.Reconcile(c.Request.Context(), tenantID, c.Param("id"), params.From, params.To)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to reconcile bank connection")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// listTransactions godoc
// @Summary List imported bank transactions
// @Tags bank
// @Produce json
// @Param connectionID query string false "Connection ID"
// @Param status query string false "Match status"
// @Param from query string false "Booking date from (YYYY-MM-DD)"
// @Param to query string false "Booking date to (YYYY-MM-DD)"
// @Success 200 {array} domain.BankTransaction
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /bank/transactions [get]
func (h *bankHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ListBankTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	txns, err := h.bankService.ListTransactions(c.Request.Context(), tenantID, params)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list bank transactions")
		return
	}
	c.JSON(http.StatusOK, txns)
}

// autoMatch godoc
// @Summary Auto-match one transaction
// @Description Matches only when exactly one open invoice of the right kind has the exact amount within the window. Ambiguous results list the candidates.
// @Tags bank
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} domain.AutoMatchResult
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Period closed"
// @Security BearerAuth
// @Router /bank/transactions/{id}/automatch [post]
func (h *bankHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	transactionID := c.Param("id")
	logger = logger.With(slog.String("transaction_id", transactionID))
	result, err := h.bankService.AutoMatch(c.Request.Context(), tenantID, transactionID, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to auto-match transaction")
		return
	}

	logger.Info("Auto-match finished", slog.String("outcome", string(result.Outcome)))
	c.JSON(http.StatusOK, result)
}

// manualMatch godoc
// @Summary Match a transaction by hand
// @Description Links the transaction to an invoice (posting the payment entry) or to an existing posted entry.
// @Tags bank
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param match body dto.ManualMatchRequest true "Invoice or entry"
// @Success 200 {object} domain.BankTransaction
// @Failure 400 {object} map[string]string "Invalid input or amount mismatch"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction, invoice or entry not found"
// @Failure 409 {object} map[string]string "Already matched or period closed"
// @Security BearerAuth
// @Router /bank/transactions/{id}/match [post]
func (h *bankHandler) manualMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ManualMatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	transactionID := c.Param("id")
	logger = logger.With(slog.String("transaction_id", transactionID))
	txn, err := h.bankService.ManualMatch(c.Request.Context(), tenantID, transactionID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to match transaction")
		return
	}

	logger.Info("Transaction matched manually", slog.String("match_status", string(txn.MatchStatus)))
	c.JSON(http.StatusOK, txn)
}

// ignore godoc
// @Summary Exclude a transaction from matching
// @Tags bank
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} domain.BankTransaction
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Already matched"
// @Security BearerAuth
// @Router /bank/transactions/{id}/ignore [post]
func (h *bankHandler) ignore(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	txn, err := h.bankService.IgnoreTransaction(c.Request.Context(), tenantID, c.Param("id"), userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to ignore transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// suggestMatches godoc
// @Summary Rank open invoices for a transaction
// @Description Exact amount first, then counterparty name similarity, then due date proximity. Read-only.
// @Tags bank
// @Produce json
// @Param id path string true "Transaction ID"
// @Param limit query int false "Maximum suggestions" default(5)
// @Success 200 {array} domain.MatchSuggestion
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /bank/transactions/{id}/suggestions [get]
func (h *bankHandler) suggestMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.SuggestMatchesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for SuggestMatches", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	suggestions, err := h.bankService.SuggestMatches(c.Request.Context(), tenantID, c.Param("id"), params.Limit)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to suggest matches")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
