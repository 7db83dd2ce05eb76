package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/service"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// BookingHandler exposes committed booking endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Get godoc
// @Summary Get one booking with its entries
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListByDate godoc
// @Summary List bookings for one day
// @Tags Bookings
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) ListByDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}
	details, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// CurrentForStudent godoc
// @Summary List a student's upcoming bookings
// @Tags Bookings
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/bookings [get]
func (h *BookingHandler) CurrentForStudent(c *gin.Context) {
	entries, err := h.service.CurrentForStudent(c.Request.Context(), c.Param("id"), time.Now().UTC().Truncate(24*time.Hour))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// UpdateEntryStatus godoc
// @Summary Transition a booking entry's lifecycle state
// @Tags Bookings
// @Accept json
// @Produce json
// @Param entryId path string true "Booking entry ID"
// @Param payload body dto.UpdateBookingEntryRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /booking-entries/{entryId}/status [put]
func (h *BookingHandler) UpdateEntryStatus(c *gin.Context) {
	var req dto.UpdateBookingEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.UpdateEntryStatus(c.Request.Context(), c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// CheckOut godoc
// @Summary Stamp a member's departure time
// @Tags Bookings
// @Produce json
// @Param entryId path string true "Booking entry ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /booking-entries/{entryId}/checkout [post]
func (h *BookingHandler) CheckOut(c *gin.Context) {
	entry, err := h.service.CheckOut(c.Request.Context(), c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Export godoc
// @Summary Export one day's bookings as CSV or PDF
// @Tags Bookings
// @Produce octet-stream
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /exports/bookings [get]
func (h *BookingHandler) Export(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	payload, contentType, err := h.service.Export(c.Request.Context(), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.%s", date.Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
