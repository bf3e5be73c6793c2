package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/domain"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// Capability names an action a role may perform. Handlers check capabilities
// through this module instead of comparing role strings inline.
type Capability string

const (
	CapViewTickets     Capability = "view_tickets"
	CapCreateTickets   Capability = "create_tickets"
	CapEditTickets     Capability = "edit_tickets"
	CapDeleteTickets   Capability = "delete_tickets"
	CapAssignTickets   Capability = "assign_tickets"
	CapPauseSLA        Capability = "pause_sla"
	CapClassifyTickets Capability = "classify_tickets"
	CapViewWorkload    Capability = "view_workload"
	CapViewActivity    Capability = "view_activity"
)

var roleCapabilities = map[domain.Role]map[Capability]struct{}{
	domain.RoleOrgAdmin: capSet(
		CapViewTickets, CapCreateTickets, CapEditTickets, CapDeleteTickets,
		CapAssignTickets, CapPauseSLA, CapClassifyTickets, CapViewWorkload, CapViewActivity,
	),
	domain.RolePropertyAdmin: capSet(
		CapViewTickets, CapCreateTickets, CapEditTickets, CapDeleteTickets,
		CapAssignTickets, CapPauseSLA, CapClassifyTickets, CapViewWorkload, CapViewActivity,
	),
	domain.RoleSecurity: capSet(
		CapViewTickets, CapCreateTickets, CapEditTickets, CapViewActivity,
	),
	domain.RoleMST: capSet(
		CapViewTickets, CapCreateTickets, CapEditTickets, CapViewActivity,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// RoleHas reports whether the role carries the capability.
func RoleHas(role domain.Role, cap Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		return false
	}
	_, ok = caps[cap]
	return ok
}

// RequireCapability guards a route by capability.
func RequireCapability(cap Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Member == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !RoleHas(principal.Member.Role, cap) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
