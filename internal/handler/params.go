package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var errInvalidParam = errors.New("invalid parameter")

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || v <= 0 {
		return 0, errInvalidParam
	}
	return int32(v), nil
}

// Helper function to parse int query params with overflow protection
func parseIntParam(s string, out *int32) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return false, errInvalidParam
	}
	*out = int32(v)
	return true, nil
}

// parsePage reads page and pageSize. Missing values stay zero and are defaulted by the services.
func parsePage(c echo.Context) (int32, int32, error) {
	var page, pageSize int32
	if ok, err := parseIntParam(c.QueryParam("page"), &page); err != nil || (ok && page < 1) {
		return 0, 0, errInvalidParam
	}
	if ok, err := parseIntParam(c.QueryParam("pageSize"), &pageSize); err != nil || (ok && pageSize < 1) {
		return 0, 0, errInvalidParam
	}
	return page, pageSize, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errInvalidParam
	}
	return decimal.NewFromString(s)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}
