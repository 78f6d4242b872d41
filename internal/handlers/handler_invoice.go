package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{invoiceService: is}
}

// registerInvoiceRoutes registers the invoice read model routes used by bank matching.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.registerInvoice)
		invoices.GET("", h.listInvoices)
		invoices.GET("/:id", h.getInvoice)
	}
}

// registerInvoice godoc
// @Summary Register an invoice for bank matching
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body dto.RegisterInvoiceRequest true "Invoice"
// @Success 201 {object} domain.Invoice
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Invoice number already registered"
// @Failure 500 {object} map[string]string "Failed to register invoice"
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) registerInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RegisterInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.RegisterInvoice(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to register invoice")
		return
	}

	logger.Info("Invoice registered", slog.String("invoice_id", invoice.InvoiceID), slog.String("number", invoice.Number))
	c.JSON(http.StatusCreated, invoice)
}

// listInvoices godoc
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param kind query string false "SALES or PURCHASE"
// @Param openOnly query bool false "Only Sent and Posted invoices"
// @Success 200 {array} domain.Invoice
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	var params dto.ListInvoicesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListInvoices", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), tenantID, params)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list invoices")
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// getInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} domain.Invoice
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get invoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}
