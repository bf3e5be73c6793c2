package service

import (
	"time"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// SLAState is the read-time display state of a ticket's SLA commitment.
type SLAState string

const (
	SLAStateNone     SLAState = "none"
	SLAStatePaused   SLAState = "paused"
	SLAStateBreached SLAState = "breached"
	SLAStateUrgent   SLAState = "urgent"
	SLAStateWarning  SLAState = "warning"
	SLAStateOK       SLAState = "ok"
)

const (
	slaUrgentWindow = 30 * time.Minute
	slaRiskWindow   = 60 * time.Minute
)

// DeadlinePolicy computes the SLA deadline for a ticket at classification or
// creation time. The category may be nil when the ticket is unclassified.
type DeadlinePolicy func(category *domain.Category, priority domain.TicketPriority, createdAt time.Time) time.Time

// DefaultDeadlinePolicy derives the deadline from priority alone.
func DefaultDeadlinePolicy(category *domain.Category, priority domain.TicketPriority, createdAt time.Time) time.Time {
	var window time.Duration
	switch priority {
	case domain.TicketPriorityUrgent:
		window = 2 * time.Hour
	case domain.TicketPriorityHigh:
		window = 4 * time.Hour
	case domain.TicketPriorityLow:
		window = 24 * time.Hour
	default:
		window = 8 * time.Hour
	}
	return createdAt.Add(window)
}

// SLADisplay computes the display state and remaining time for a ticket.
// Paused takes precedence over breached; terminal tickets and tickets
// without a deadline have no SLA state.
func SLADisplay(ticket *domain.Ticket, now time.Time) (SLAState, time.Duration) {
	if ticket.SLADeadline == nil || ticket.Status.Terminal() {
		return SLAStateNone, 0
	}
	if ticket.SLAPaused {
		return SLAStatePaused, ticket.SLADeadline.Sub(now)
	}
	if ticket.SLABreached || now.After(*ticket.SLADeadline) {
		return SLAStateBreached, 0
	}
	remaining := ticket.SLADeadline.Sub(now)
	switch {
	case remaining < slaUrgentWindow:
		return SLAStateUrgent, remaining
	case remaining < slaRiskWindow:
		return SLAStateWarning, remaining
	default:
		return SLAStateOK, remaining
	}
}

// InSLARisk reports whether the ticket belongs to the risk queue: a live
// deadline within the next hour, not paused and not yet breached.
func InSLARisk(ticket *domain.Ticket, now time.Time) bool {
	state, remaining := SLADisplay(ticket, now)
	if state != SLAStateUrgent && state != SLAStateWarning {
		return false
	}
	return remaining > 0 && remaining < slaRiskWindow
}
