package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// MaxAmount is the exclusive bound on the magnitude of stored amounts and
// balances, which are NUMERIC(14,2) columns
var MaxAmount = decimal.New(1, 12)

// WithinAmountRange reports whether |d| fits a stored amount
func WithinAmountRange(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxAmount)
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code.
// An empty code yields fallback.
func NormalizeCurrency(code, fallback string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = fallback
	}
	if !currencyPattern.MatchString(code) {
		return "", ErrInvalidCurrency
	}
	return code, nil
}

// Pagination defaults shared by list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a normalized page request
type Page struct {
	Page     int32
	PageSize int32
}

// NormalizePage applies defaults and caps to a page request
func NormalizePage(page, pageSize int32) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Page{Page: page, PageSize: pageSize}
}

// Offset returns the row offset of the page. It is computed in int64 since
// page * pageSize overflows int32 for large page numbers.
func (p Page) Offset() int64 {
	return int64(p.Page-1) * int64(p.PageSize)
}

// TotalPages returns the number of pages needed for totalItems
func (p Page) TotalPages(totalItems int64) int32 {
	pages := int32(totalItems / int64(p.PageSize))
	if totalItems%int64(p.PageSize) > 0 {
		pages++
	}
	return pages
}
