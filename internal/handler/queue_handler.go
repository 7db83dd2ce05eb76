package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/service"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// QueueHandler exposes the queue admission endpoint.
type QueueHandler struct {
	service *service.QueueService
}

// NewQueueHandler constructs a queue handler.
func NewQueueHandler(svc *service.QueueService) *QueueHandler {
	return &QueueHandler{service: svc}
}

// Enqueue godoc
// @Summary Join the waiting queue for a time slot
// @Tags Queues
// @Accept json
// @Produce json
// @Param payload body dto.EnqueueRequest true "Queue payload"
// @Success 201 {object} response.Envelope
// @Router /queues [post]
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
