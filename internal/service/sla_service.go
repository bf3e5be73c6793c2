package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// SLAService tracks time-bound resolution commitments per ticket.
type SLAService struct {
	tickets    repository.TicketRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// SLADependencies bundles collaborators.
type SLADependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	return &SLAService{
		tickets:    deps.TicketRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// PauseSLA toggles the SLA pause flag. Resuming credits the paused span back
// to the deadline, so the working window a pause consumed is restored.
func (s *SLAService) PauseSLA(ctx context.Context, actor *domain.Member, ticketID string, pause bool, reason string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("cannot pause SLA on a resolved or closed ticket", nil)
	}
	if ticket.SLAPaused == pause {
		if pause {
			return nil, apperrors.NewValidationError("SLA already paused", nil)
		}
		return nil, apperrors.NewValidationError("SLA is not paused", nil)
	}

	now := s.now()
	var action domain.ActivityAction
	var eventType events.EventType
	if pause {
		ticket.SLAPaused = true
		ticket.SLAPausedAt = &now
		action = domain.ActionSLAPaused
		eventType = events.EventSLAPaused
	} else {
		if ticket.SLAPausedAt != nil {
			credit := now.Sub(*ticket.SLAPausedAt)
			ticket.SLAPausedTotal += credit
			if ticket.SLADeadline != nil {
				shifted := ticket.SLADeadline.Add(credit)
				ticket.SLADeadline = &shifted
			}
		}
		ticket.SLAPaused = false
		ticket.SLAPausedAt = nil
		if ticket.SLADeadline != nil {
			ticket.SLABreached = now.After(*ticket.SLADeadline)
		}
		action = domain.ActionSLAResumed
		eventType = events.EventSLAResumed
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	oldValue := "running"
	newValue := "paused"
	if !pause {
		oldValue, newValue = newValue, oldValue
	}
	record := &domain.Activity{
		TicketID: ticket.ID,
		Action:   action,
		OldValue: &oldValue,
		NewValue: &newValue,
		Actor:    actor.Name,
	}
	if reason != "" {
		withReason := newValue + ": " + reason
		record.NewValue = &withReason
	}
	if err := s.activity.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      eventType,
			TicketID:  ticket.ID,
			Actor:     events.Actor{MemberID: actor.ID, Role: actor.Role},
			Timestamp: now,
			Payload:   events.SLAPausePayload{Paused: pause, Reason: reason, Deadline: ticket.SLADeadline},
		})
	}
	return ticket, nil
}

// ListSLARisk returns tickets whose deadline falls within the next hour:
// running, not yet breached, newest-first. Breached tickets belong to the
// separate breached view.
func (s *SLAService) ListSLARisk(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.listByState(ctx, filter, func(ticket *domain.Ticket, now time.Time) bool {
		return InSLARisk(ticket, now)
	})
}

// ListBreached returns tickets whose SLA display state is breached.
func (s *SLAService) ListBreached(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.listByState(ctx, filter, func(ticket *domain.Ticket, now time.Time) bool {
		state, _ := SLADisplay(ticket, now)
		return state == SLAStateBreached
	})
}

func (s *SLAService) listByState(ctx context.Context, filter repository.TicketFilter, include func(*domain.Ticket, time.Time) bool) ([]domain.Ticket, error) {
	if err := ValidateScope(filter); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	matched := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if include(&tickets[i], now) {
			matched = append(matched, tickets[i])
		}
	}
	return matched, nil
}
