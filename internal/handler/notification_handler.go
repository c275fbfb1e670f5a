package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/service"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID        int32  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	BudgetID  *int32 `json:"budgetId"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

// PaginatedNotificationsResponse represents paginated notifications in API responses
type PaginatedNotificationsResponse struct {
	Data       []NotificationResponse `json:"data"`
	Page       int32                  `json:"page"`
	PageSize   int32                  `json:"pageSize"`
	TotalItems int64                  `json:"totalItems"`
	TotalPages int32                  `json:"totalPages"`
}

// UnreadCountResponse is the number of unread notifications
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse is the number of notifications marked read
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// GetNotifications godoc
// @Summary List notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} PaginatedNotificationsResponse
// @Router /notifications [get]
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID := middleware.GetUserID(c)

	page, pageSize, err := parsePage(c)
	if err != nil {
		return NewValidationError(c, "Invalid page or pageSize (must be positive integers)", nil)
	}
	unreadOnly := c.QueryParam("unread") == "true"

	result, err := h.notificationService.List(c.Request().Context(), userID, unreadOnly, page, pageSize)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list notifications")
		return NewInternalError(c, "Failed to list notifications")
	}

	response := PaginatedNotificationsResponse{
		Data:       make([]NotificationResponse, len(result.Data)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}
	for i, n := range result.Data {
		response.Data[i] = toNotificationResponse(n)
	}
	return c.JSON(http.StatusOK, response)
}

// GetUnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := middleware.GetUserID(c)

	count, err := h.notificationService.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to count notifications")
		return NewInternalError(c, "Failed to count notifications")
	}
	return c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} NotificationResponse
// @Failure 404 {object} ProblemDetails
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid notification ID", nil)
	}

	n, err := h.notificationService.MarkRead(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			return NewNotFoundError(c, "Notification not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("notification_id", id).Msg("Failed to mark notification read")
		return NewInternalError(c, "Failed to mark notification read")
	}
	return c.JSON(http.StatusOK, toNotificationResponse(n))
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MarkAllReadResponse
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID := middleware.GetUserID(c)

	updated, err := h.notificationService.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to mark notifications read")
		return NewInternalError(c, "Failed to mark notifications read")
	}
	return c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid notification ID", nil)
	}

	if err := h.notificationService.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			return NewNotFoundError(c, "Notification not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("notification_id", id).Msg("Failed to delete notification")
		return NewInternalError(c, "Failed to delete notification")
	}
	return c.NoContent(http.StatusNoContent)
}

func toNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		BudgetID:  n.BudgetID,
		IsRead:    n.IsRead,
		CreatedAt: formatTimestamp(n.CreatedAt),
	}
}
