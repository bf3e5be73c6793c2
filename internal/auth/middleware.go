package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Member *domain.Member
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	members repository.MemberRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, members repository.MemberRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, members: members}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	member, err := m.members.GetByID(c.Context(), claims.MemberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("member not found")
		}
		return apperrors.MapError(err)
	}
	if !member.Active {
		return apperrors.NewUnauthorized("member deactivated")
	}

	c.Locals(principalKey, &Principal{Member: member})
	return c.Next()
}

// PrincipalFromContext extracts the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}
