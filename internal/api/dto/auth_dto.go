package dto

import (
	"time"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the member profile.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Member    MemberResponse `json:"member"`
}

// MemberResponse is the public member profile.
type MemberResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	OrganizationID string      `json:"organization_id"`
	PropertyID     *string     `json:"property_id"`
}
