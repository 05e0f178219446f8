package handler

import (
	"context"
	"errors"
	"net/http"

	"taskhub/internal/middleware"
	"taskhub/internal/model"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListForRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, n *model.Notification) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type NotificationHandler struct {
	repo NotificationStore
}

func NewNotificationHandler(repo NotificationStore) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List godoc
// @Summary Notifications of the current user, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Failure 401 {object} ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	notifications, err := h.repo.ListForRecipient(c.Request.Context(), userID)
	if err != nil {
		respondServerError(c, "list notifications", err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} model.Notification
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	notificationID, ok := parseID(c, "Invalid notification ID format")
	if !ok {
		return
	}

	notification, err := h.repo.GetByID(c.Request.Context(), notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Notification not found"})
			return
		}
		respondServerError(c, "get notification", err)
		return
	}

	// Отмечать можно только свои уведомления
	if notification.RecipientID != userID {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authorized"})
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), notification); err != nil {
		respondServerError(c, "mark notification read", err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllRead godoc
// @Summary Mark every unread notification of the current user as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	if _, err := h.repo.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondServerError(c, "mark all notifications read", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All marked as read"})
}
