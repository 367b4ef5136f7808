package handlers

import (
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/apperr"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/dto"
	"github.com/Tully-L/Stu-Points-wxapp-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = apperr.BadRequest("invalid request body")

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	resp, err := h.authService.Login(c.UserContext(), req.Code)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
