package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://spendly.app/errors/validation"
	ErrorTypeNotFound     = "https://spendly.app/errors/not-found"
	ErrorTypeUnauthorized = "https://spendly.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://spendly.app/errors/forbidden"
	ErrorTypeConflict     = "https://spendly.app/errors/conflict"
	ErrorTypeUnavailable  = "https://spendly.app/errors/unavailable"
	ErrorTypeInternal     = "https://spendly.app/errors/internal"
)

func newProblem(status int, errorType, title, detail string) *ProblemDetails {
	return &ProblemDetails{Type: errorType, Title: title, Status: status, Detail: detail}
}

func fieldProblem(field, message string) *ProblemDetails {
	p := newProblem(http.StatusBadRequest, ErrorTypeValidation, "Validation Error", "Validation failed")
	p.Errors = []ValidationError{{Field: field, Message: message}}
	return p
}

func notFoundProblem(detail string) *ProblemDetails {
	return newProblem(http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail)
}

func forbiddenProblem(detail string) *ProblemDetails {
	return newProblem(http.StatusForbidden, ErrorTypeForbidden, "Forbidden", detail)
}

func conflictProblem(detail string) *ProblemDetails {
	return newProblem(http.StatusConflict, ErrorTypeConflict, "Conflict", detail)
}

// writeProblem sends p with the request path as instance
func writeProblem(c echo.Context, p *ProblemDetails) error {
	p.Instance = c.Request().URL.Path
	return c.JSON(p.Status, p)
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	p := newProblem(http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail)
	p.Errors = errors
	return writeProblem(c, p)
}

// NewFieldError creates a validation error response for a single field
func NewFieldError(c echo.Context, field, message string) error {
	return writeProblem(c, fieldProblem(field, message))
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return writeProblem(c, notFoundProblem(detail))
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, newProblem(http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail))
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return writeProblem(c, forbiddenProblem(detail))
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return writeProblem(c, conflictProblem(detail))
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return writeProblem(c, newProblem(http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail))
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return writeProblem(c, newProblem(http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail))
}
