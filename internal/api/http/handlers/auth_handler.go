package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/api/dto"
	"github.com/facilityhub/ticket-service/internal/service"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// AuthHandler serves login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}

	member, token, expiresAt, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Member: dto.MemberResponse{
			ID:             member.ID,
			Name:           member.Name,
			Email:          member.Email,
			Role:           member.Role,
			OrganizationID: member.OrganizationID,
			PropertyID:     member.PropertyID,
		},
	})
}
