package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/dto"
	"github.com/guttosm/mktabuse/internal/marketdata"
	"github.com/guttosm/mktabuse/internal/middleware"
	"github.com/guttosm/mktabuse/internal/service"
)

// Handler provides HTTP handlers for market abuse reports.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Run the detection through the service layer
//   - Translate reports and failures into response DTOs
type Handler struct {
	svc           service.ReportService
	defaultMethod abuse.RankMethod
}

// NewHandler constructs a new Handler instance. defaultMethod is the tie
// policy reported when a request does not choose one.
func NewHandler(svc service.ReportService, defaultMethod abuse.RankMethod) *Handler {
	if defaultMethod == "" {
		defaultMethod = abuse.RankAverage
	}
	return &Handler{svc: svc, defaultMethod: defaultMethod}
}

// GetReport handles GET /api/v1/reports requests.
//
// Query Parameters:
//   - stock (string, required): instrument symbol, matched exactly (e.g., "AMZN").
//   - start_date, end_date (string, optional): YYYY-MM-DD, inclusive; default to the configured window.
//   - rank_method (string, optional): average|min|dense.
//
// GetReport godoc
// @Summary      Market abuse report for one stock
// @Description  Flags orders priced outside the daily range (or placed on a non-trading day) and returns the trader ranking and the country summary
// @Tags         reports
// @Produce      json
// @Param        stock        query     string  true   "Stock symbol" example(AMZN)
// @Param        start_date   query     string  false  "Start date in YYYY-MM-DD" example(2020-02-01)
// @Param        end_date     query     string  false  "End date in YYYY-MM-DD" example(2020-03-31)
// @Param        rank_method  query     string  false  "Tie policy" Enums(average, min, dense)
// @Success      200          {object}  dto.ReportResponse  "Success"
// @Failure      400          {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404          {object}  dto.ErrorResponse   "Nothing flagged"
// @Failure      422          {object}  dto.ErrorResponse   "Invalid input data"
// @Failure      502          {object}  dto.ErrorResponse   "Market data unavailable"
// @Failure      500          {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/reports [get]
func (h *Handler) GetReport(c *gin.Context) {
	stock := strings.TrimSpace(c.Query("stock"))
	if stock == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "stock is required", nil)
		return
	}

	startDate, err := parseDateParam(c, "start_date")
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid start_date format, expected YYYY-MM-DD", err)
		return
	}
	endDate, err := parseDateParam(c, "end_date")
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid end_date format, expected YYYY-MM-DD", err)
		return
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		middleware.AbortWithError(c, http.StatusBadRequest, "end_date must not be before start_date", nil)
		return
	}

	var method abuse.RankMethod
	if s := c.Query("rank_method"); s != "" {
		method, err = abuse.ParseRankMethod(s)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid rank_method", err)
			return
		}
	}

	report, err := h.svc.GetReport(c.Request.Context(), stock, startDate, endDate, method)
	if err != nil {
		status, msg := classify(err)
		middleware.AbortWithError(c, status, msg, err)
		return
	}

	if method == "" {
		method = h.defaultMethod
	}
	c.JSON(http.StatusOK, dto.NewReportResponse(report, string(method)))
}

func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// classify maps pipeline failures onto HTTP statuses.
func classify(err error) (int, string) {
	var dup *abuse.DuplicateReferenceDataError
	var upstream *marketdata.HTTPError
	switch {
	case errors.Is(err, abuse.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, abuse.ErrEmptyInput):
		return http.StatusNotFound, "no abusive orders found"
	case errors.Is(err, abuse.ErrInputValidation), errors.As(err, &dup):
		return http.StatusUnprocessableEntity, "invalid input data"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, "market data unavailable"
	default:
		return http.StatusInternalServerError, "failed to build report"
	}
}
