package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/service"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// ReceiptHandler exposes receipt endpoints.
type ReceiptHandler struct {
	service *service.ReceiptService
}

// NewReceiptHandler constructs a receipt handler.
func NewReceiptHandler(svc *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{service: svc}
}

type issueReceiptRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// Get godoc
// @Summary Get one receipt
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// ListByStudent godoc
// @Summary List a student's receipts
// @Tags Receipts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/receipts [get]
func (h *ReceiptHandler) ListByStudent(c *gin.Context) {
	receipts, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipts, nil)
}

// Issue godoc
// @Summary Issue a receipt to a student
// @Tags Receipts
// @Accept json
// @Produce json
// @Param payload body issueReceiptRequest true "Receipt payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts [post]
func (h *ReceiptHandler) Issue(c *gin.Context) {
	var req issueReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	receipt, err := h.service.Issue(c.Request.Context(), req.StudentID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}
