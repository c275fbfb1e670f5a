package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/service"
)

const defaultTrendMonths = 6

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// TotalsResponse holds the totals of a period
type TotalsResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

// CategoryShareResponse is one row of the category breakdown
type CategoryShareResponse struct {
	CategoryID   int32  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	Amount       string `json:"amount"`
	Share        string `json:"share"`
	Count        int64  `json:"count"`
}

// SeriesPointResponse is the income and expense of one bucket
type SeriesPointResponse struct {
	Date    string `json:"date"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

// ReportSummaryResponse is the summary of one period
type ReportSummaryResponse struct {
	Period    string                  `json:"period"`
	StartDate string                  `json:"startDate"`
	EndDate   string                  `json:"endDate"`
	Currency  string                  `json:"currency"`
	Bucket    string                  `json:"bucket"`
	Totals    TotalsResponse          `json:"totals"`
	Income    []CategoryShareResponse `json:"income"`
	Expense   []CategoryShareResponse `json:"expense"`
	Series    []SeriesPointResponse   `json:"series"`
}

// TrendResponse is income and expense per month
type TrendResponse struct {
	Months   int                   `json:"months"`
	Currency string                `json:"currency"`
	Series   []SeriesPointResponse `json:"series"`
}

// GetSummary godoc
// @Summary Period summary with category breakdown and time series
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param period query string false "week, month or year (default month)"
// @Param date query string false "Any date inside the period (YYYY-MM-DD, default today)"
// @Param currency query string false "Wallet currency (default profile currency)"
// @Param walletId query int false "Restrict to one wallet"
// @Success 200 {object} ReportSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/summary [get]
func (h *ReportHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	input, invalid := parseSummaryInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	summary, err := h.reportService.Summary(c.Request().Context(), userID, *input)
	if err != nil {
		if p := reportError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to build report summary")
		return NewInternalError(c, "Failed to build report summary")
	}

	return c.JSON(http.StatusOK, toReportSummaryResponse(summary))
}

// GetTrend godoc
// @Summary Monthly income and expense trend
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param months query int false "Number of months, 1 to 24 (default 6)"
// @Param currency query string false "Wallet currency (default profile currency)"
// @Success 200 {object} TrendResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/trend [get]
func (h *ReportHandler) GetTrend(c echo.Context) error {
	userID := middleware.GetUserID(c)

	months := defaultTrendMonths
	if s := c.QueryParam("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return NewFieldError(c, "months", "Must be an integer")
		}
		months = n
	}

	trend, err := h.reportService.Trend(c.Request().Context(), userID, months, c.QueryParam("currency"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewFieldError(c, "months", fmt.Sprintf("Must be between 1 and %d", domain.MaxTrendMonths))
		}
		if p := reportError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to build report trend")
		return NewInternalError(c, "Failed to build report trend")
	}

	return c.JSON(http.StatusOK, TrendResponse{
		Months:   trend.Months,
		Currency: trend.Currency,
		Series:   toSeriesResponse(trend.Series),
	})
}

// ExportPDF godoc
// @Summary Download a PDF statement of a period
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Param period query string false "week, month or year (default month)"
// @Param date query string false "Any date inside the period (YYYY-MM-DD, default today)"
// @Param currency query string false "Wallet currency (default profile currency)"
// @Param walletId query int false "Restrict to one wallet"
// @Success 200 {file} file
// @Failure 400 {object} ProblemDetails
// @Router /reports/export.pdf [get]
func (h *ReportHandler) ExportPDF(c echo.Context) error {
	userID := middleware.GetUserID(c)

	input, invalid := parseSummaryInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	pdf, err := h.reportService.ExportPDF(c.Request().Context(), userID, *input)
	if err != nil {
		if p := reportError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to export statement")
		return NewInternalError(c, "Failed to export statement")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", pdf.Filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf.Data)
}

func parseSummaryInput(c echo.Context) (*service.SummaryInput, *ValidationError) {
	input := &service.SummaryInput{
		Period:   domain.PeriodMonth,
		Currency: c.QueryParam("currency"),
	}
	if p := c.QueryParam("period"); p != "" {
		input.Period = domain.ReportPeriod(p)
	}

	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return nil, &ValidationError{Field: "date", Message: "Must be in YYYY-MM-DD format"}
	}
	input.Date = date

	var walletID int32
	ok, err := parseIntParam(c.QueryParam("walletId"), &walletID)
	if err != nil {
		return nil, &ValidationError{Field: "walletId", Message: "Must be a positive integer"}
	}
	if ok {
		input.WalletID = &walletID
	}
	return input, nil
}

// reportError maps report domain errors. Unexpected errors yield nil.
func reportError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrInvalidPeriod):
		return fieldProblem("period", "Must be one of: week, month, year")
	case errors.Is(err, domain.ErrInvalidCurrency):
		return fieldProblem("currency", "Must be a 3-letter ISO 4217 code")
	case errors.Is(err, domain.ErrUserNotFound):
		return notFoundProblem("User not found")
	}
	return nil
}

func toReportSummaryResponse(s *service.ReportSummary) ReportSummaryResponse {
	return ReportSummaryResponse{
		Period:    string(s.Period),
		StartDate: s.StartDate.Format(dateLayout),
		EndDate:   s.EndDate.Format(dateLayout),
		Currency:  s.Currency,
		Bucket:    string(s.Bucket),
		Totals: TotalsResponse{
			Income:  s.Totals.Income.StringFixed(2),
			Expense: s.Totals.Expense.StringFixed(2),
			Net:     s.Totals.Net.StringFixed(2),
		},
		Income:  toShareResponse(s.Income),
		Expense: toShareResponse(s.Expense),
		Series:  toSeriesResponse(s.Series),
	}
}

func toShareResponse(rows []*service.CategoryShare) []CategoryShareResponse {
	out := make([]CategoryShareResponse, len(rows))
	for i, r := range rows {
		out[i] = CategoryShareResponse{
			CategoryID:   r.CategoryID,
			CategoryName: r.CategoryName,
			Icon:         r.Icon,
			Color:        r.Color,
			Amount:       r.Amount.StringFixed(2),
			Share:        r.Share.StringFixed(2),
			Count:        r.Count,
		}
	}
	return out
}

func toSeriesResponse(points []*domain.SeriesPoint) []SeriesPointResponse {
	out := make([]SeriesPointResponse, len(points))
	for i, p := range points {
		out[i] = SeriesPointResponse{
			Date:    p.Bucket.Format(dateLayout),
			Income:  p.Income.StringFixed(2),
			Expense: p.Expense.StringFixed(2),
		}
	}
	return out
}
