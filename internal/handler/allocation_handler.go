package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/service"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// AllocationHandler exposes allocation runs, status lookups, and delivery
// requests.
type AllocationHandler struct {
	allocations   *service.AllocationService
	notifications *service.NotificationService
}

// NewAllocationHandler constructs an allocation handler.
func NewAllocationHandler(allocations *service.AllocationService, notifications *service.NotificationService) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, notifications: notifications}
}

// Run godoc
// @Summary Run allocation over all waiting queues
// @Tags Allocations
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /allocations/run [post]
func (h *AllocationHandler) Run(c *gin.Context) {
	summary, err := h.allocations.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Status godoc
// @Summary Get a student's current allocation status
// @Tags Allocations
// @Produce json
// @Param studentId path string true "Student ID"
// @Param bookingId query string false "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/status/{studentId} [get]
func (h *AllocationHandler) Status(c *gin.Context) {
	status, err := h.notifications.CurrentStatus(c.Request.Context(), c.Param("studentId"), c.Query("bookingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// History godoc
// @Summary List every allocation status recorded for a student
// @Tags Allocations
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/history/{studentId} [get]
func (h *AllocationHandler) History(c *gin.Context) {
	statuses, err := h.notifications.StatusHistory(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Notify godoc
// @Summary Deliver the notification for a student's stored allocation outcome
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.NotifyRequest true "Notify payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/notify [post]
func (h *AllocationHandler) Notify(c *gin.Context) {
	var req dto.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.notifications.Notify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
