package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestErrorConstructorsCarryStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err        error
		wantCode   string
		wantStatus int
	}{
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewInvalidTransition("closed", "open"), "INVALID_TRANSITION", http.StatusUnprocessableEntity},
		{NewInvalidResolver("u1", nil), "INVALID_RESOLVER", http.StatusUnprocessableEntity},
		{NewInvalidCategory("c1"), "INVALID_CATEGORY", http.StatusUnprocessableEntity},
		{NewUnauthorized("nope"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{NewConflict("stale", nil), "CONFLICT", http.StatusConflict},
		{NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		if domainErr.Code != tc.wantCode {
			t.Errorf("code = %q, want %q", domainErr.Code, tc.wantCode)
		}
		if domainErr.HTTPStatus != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.wantCode, domainErr.HTTPStatus, tc.wantStatus)
		}
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	t.Parallel()
	domainErr := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	if domainErr.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", domainErr.Code)
	}
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	t.Parallel()
	cause := errors.New("disk on fire")
	domainErr := ToDomainError(cause)
	if domainErr.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", domainErr.Code)
	}
	if !errors.Is(domainErr, cause) {
		t.Error("wrapped cause lost")
	}
}

func TestInvalidTransitionDetails(t *testing.T) {
	t.Parallel()
	domainErr := ToDomainError(NewInvalidTransition("closed", "in_progress"))
	if domainErr.Details["from"] != "closed" || domainErr.Details["to"] != "in_progress" {
		t.Errorf("details = %v, want from/to populated", domainErr.Details)
	}
}
