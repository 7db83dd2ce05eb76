package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/service"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// NotificationHandler exposes student notification endpoints.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// ListByStudent godoc
// @Summary List a student's notifications
// @Tags Notifications
// @Produce json
// @Param id path string true "Student ID"
// @Param unread query bool false "Unread only"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/notifications [get]
func (h *NotificationHandler) ListByStudent(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"), unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"read": true}, nil)
}
