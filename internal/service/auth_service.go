package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilityhub/ticket-service/internal/auth"
	"github.com/facilityhub/ticket-service/internal/config"
	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// AuthService handles member login. Directory management lives elsewhere;
// this service only authenticates existing members.
type AuthService struct {
	members  repository.MemberRepository
	tokenMgr *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, members repository.MemberRepository) *AuthService {
	return &AuthService{
		members:  members,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}
}

// Login authenticates a member and issues a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Member, string, time.Time, error) {
	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !member.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("member deactivated")
	}
	if err := auth.ComparePassword(member.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, expiresAt, err := s.tokenMgr.GenerateToken(member)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return member, token, expiresAt, nil
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
