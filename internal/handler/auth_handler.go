package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elitheslime01/gymmate-2024/internal/middleware"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	"github.com/elitheslime01/gymmate-2024/internal/service"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
	"github.com/elitheslime01/gymmate-2024/pkg/response"
)

// AuthHandler exposes admin authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary Register a staff account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterAdminRequest true "New account"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Me godoc
// @Summary Get the authenticated admin's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	value, ok := c.Get(middleware.ContextAdminKey)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), claims.AdminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
