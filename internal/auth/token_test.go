package auth

import (
	"testing"

	"github.com/facilityhub/ticket-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("test-secret", 60)
	prop := "prop-1"
	member := &domain.Member{
		ID:             "member-1",
		Role:           domain.RoleSecurity,
		OrganizationID: "org-1",
		PropertyID:     &prop,
	}

	token, _, err := tm.GenerateToken(member)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.MemberID != "member-1" {
		t.Errorf("member id = %q, want member-1", claims.MemberID)
	}
	if claims.Role != domain.RoleSecurity {
		t.Errorf("role = %q, want security", claims.Role)
	}
	if claims.OrganizationID != "org-1" {
		t.Errorf("org = %q, want org-1", claims.OrganizationID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	t.Parallel()
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken(&domain.Member{ID: "m", Role: domain.RoleMST})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("hunter2hunter2", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "hunter2hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}
