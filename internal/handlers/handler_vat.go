package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/Fattieportal/boekhouding-saas/internal/core/ports/services"
	"github.com/Fattieportal/boekhouding-saas/internal/dto"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/gin-gonic/gin"
)

type vatHandler struct {
	vatService portssvc.VATSvcFacade
}

func newVATHandler(vs portssvc.VATSvcFacade) *vatHandler {
	return &vatHandler{vatService: vs}
}

// registerVATRoutes registers quarterly VAT routes.
func registerVATRoutes(rg *gin.RouterGroup, vatService portssvc.VATSvcFacade) {
	h := newVATHandler(vatService)

	vat := rg.Group("/vat/calculations")
	{
		vat.POST("", h.calculate)
		vat.GET("", h.listCalculations)
		vat.GET("/:id", h.getCalculation)
		vat.POST("/:id/submit", h.submit)
	}
}

// calculate godoc
// @Summary Calculate VAT for a quarter
// @Description Aggregates posted lines carrying a VAT rate. Recalculating replaces the previous result until it is submitted.
// @Tags vat
// @Accept json
// @Produce json
// @Param calculation body dto.CalculateVATRequest true "Year and quarter"
// @Success 200 {object} domain.VATCalculation
// @Failure 400 {object} map[string]string "Invalid quarter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Quarter already submitted"
// @Failure 500 {object} map[string]string "Failed to calculate VAT"
// @Security BearerAuth
// @Router /vat/calculations [post]
func (h *vatHandler) calculate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CalculateVATRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CalculateVAT", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.Int("year", req.Year), slog.Int("quarter", req.Quarter))
	calc, err := h.vatService.Calculate(c.Request.Context(), tenantID, req.Year, req.Quarter, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to calculate VAT")
		return
	}

	logger.Info("VAT calculated", slog.String("calculation_id", calc.CalculationID), slog.String("net_vat", calc.NetVAT.String()))
	c.JSON(http.StatusOK, calc)
}

// listCalculations godoc
// @Summary List VAT calculations of a year
// @Tags vat
// @Produce json
// @Param year query int true "Year"
// @Success 200 {array} domain.VATCalculation
// @Failure 400 {object} map[string]string "Invalid year"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /vat/calculations [get]
func (h *vatHandler) listCalculations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year query parameter is required"})
		return
	}

	calcs, err := h.vatService.ListCalculations(c.Request.Context(), tenantID, year)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to list VAT calculations")
		return
	}
	c.JSON(http.StatusOK, calcs)
}

// getCalculation godoc
// @Summary Get a VAT calculation
// @Tags vat
// @Produce json
// @Param id path string true "Calculation ID"
// @Success 200 {object} domain.VATCalculation
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Calculation not found"
// @Security BearerAuth
// @Router /vat/calculations/{id} [get]
func (h *vatHandler) getCalculation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, _, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	calc, err := h.vatService.GetCalculation(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		handleServiceError(c, logger, err, "Failed to get VAT calculation")
		return
	}
	c.JSON(http.StatusOK, calc)
}

// submit godoc
// @Summary Submit a VAT calculation
// @Description A submitted calculation is frozen.
// @Tags vat
// @Produce json
// @Param id path string true "Calculation ID"
// @Success 200 {object} domain.VATCalculation
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Calculation not found"
// @Failure 409 {object} map[string]string "Already submitted"
// @Failure 500 {object} map[string]string "Failed to submit VAT calculation"
// @Security BearerAuth
// @Router /vat/calculations/{id}/submit [post]
func (h *vatHandler) submit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID, userID, ok := requestIdentity(c, logger)
	if !ok {
		return
	}

	calculationID := c.Param("id")
	logger = logger.With(slog.String("calculation_id", calculationID))
	calc, err := h.vatService.Submit(c.Request.Context(), tenantID, calculationID, userID)
	if err != nil {
		handleServiceError(c, logger, err, "Failed to submit VAT calculation")
		return
	}

	logger.Info("VAT calculation submitted")
	c.JSON(http.StatusOK, calc)
}
