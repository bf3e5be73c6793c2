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

// OverrideReset is the sentinel that clears a ticket's classification back to
// the unclassified waitlist state.
const OverrideReset = "reset"

// ClassificationService runs the category engine and manages the waitlist.
type ClassificationService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	classifier Classifier
	deadline   DeadlinePolicy
	now        func() time.Time
}

// ClassificationDependencies bundles collaborators.
type ClassificationDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
	Classifier   Classifier
	Deadline     DeadlinePolicy
}

// NewClassificationService constructs the service.
func NewClassificationService(deps ClassificationDependencies) *ClassificationService {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	deadline := deps.Deadline
	if deadline == nil {
		deadline = DefaultDeadlinePolicy
	}
	return &ClassificationService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		classifier: classifier,
		deadline:   deadline,
		now:        time.Now,
	}
}

// Reclassify re-runs the engine on an existing ticket ("AI Re-eval"). The
// outcome is always logged, even when nothing changes.
func (s *ClassificationService) Reclassify(ctx context.Context, actor *domain.Member, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("cannot reclassify a resolved or closed ticket", nil)
	}

	categories, err := s.categories.ListByProperty(ctx, ticket.PropertyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	oldCategory := ticket.CategoryID
	classification := s.classifier.Classify(ticket, categories)

	ticket.ConfidenceScore = classification.Confidence
	ticket.IsVague = classification.Vague()
	if !sameAssignee(oldCategory, classification.CategoryID) {
		ticket.CategoryID = classification.CategoryID
		s.recomputeDeadline(ticket, categoryByID(categories, classification.CategoryID))
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.logClassification(ctx, ticket, domain.ActionReclassified, oldCategory, actor.Name); err != nil {
		return nil, err
	}
	s.publishClassified(ctx, actor, events.EventTicketClassified, ticket, oldCategory)
	return ticket, nil
}

// OverrideClassification manually sets the category, clearing the vague flag
// and pinning the confidence sentinel. The "reset" sentinel returns the
// ticket to the unclassified waitlist state.
func (s *ClassificationService) OverrideClassification(ctx context.Context, actor *domain.Member, ticketID, categoryID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("cannot reclassify a resolved or closed ticket", nil)
	}

	oldCategory := ticket.CategoryID

	if categoryID == OverrideReset {
		ticket.CategoryID = nil
		ticket.ConfidenceScore = 0
		ticket.IsVague = true
	} else {
		category, err := s.categories.GetByID(ctx, categoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewInvalidCategory(categoryID)
			}
			return nil, apperrors.MapError(err)
		}
		if category.PropertyID != ticket.PropertyID {
			return nil, apperrors.NewInvalidCategory(categoryID)
		}
		ticket.CategoryID = &category.ID
		ticket.ConfidenceScore = OverrideConfidence
		ticket.IsVague = false
		if !sameAssignee(oldCategory, ticket.CategoryID) {
			s.recomputeDeadline(ticket, category)
		}
	}

	if err := s.saveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.logClassification(ctx, ticket, domain.ActionClassificationOverride, oldCategory, actor.Name); err != nil {
		return nil, err
	}
	s.publishClassified(ctx, actor, events.EventClassificationOverridden, ticket, oldCategory)
	return ticket, nil
}

// ListWaitlist returns the tickets awaiting human classification review,
// newest-first. The waitlist is a read-time predicate, not a stored queue.
func (s *ClassificationService) ListWaitlist(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := ValidateScope(filter); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	waitlist := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if tickets[i].InWaitlist() {
			waitlist = append(waitlist, tickets[i])
		}
	}
	return waitlist, nil
}

// The deadline follows the category at classification time. Credit for time
// already spent paused carries over so a reclassification cannot claw back
// earned pause credit.
func (s *ClassificationService) recomputeDeadline(ticket *domain.Ticket, category *domain.Category) {
	deadline := s.deadline(category, ticket.Priority, ticket.CreatedAt).Add(ticket.SLAPausedTotal)
	ticket.SLADeadline = &deadline
	ticket.SLABreached = s.now().After(deadline)
}

func (s *ClassificationService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *ClassificationService) saveTicket(ctx context.Context, ticket *domain.Ticket) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ClassificationService) logClassification(ctx context.Context, ticket *domain.Ticket, action domain.ActivityAction, oldCategory *string, actor string) error {
	record := &domain.Activity{
		TicketID: ticket.ID,
		Action:   action,
		OldValue: oldCategory,
		NewValue: ticket.CategoryID,
		Actor:    actor,
	}
	if err := s.activity.Create(ctx, record); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ClassificationService) publishClassified(ctx context.Context, actor *domain.Member, eventType events.EventType, ticket *domain.Ticket, oldCategory *string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Actor:     events.Actor{MemberID: actor.ID, Role: actor.Role},
		Timestamp: s.now(),
		Payload: events.TicketClassifiedPayload{
			OldCategoryID:   oldCategory,
			NewCategoryID:   ticket.CategoryID,
			ConfidenceScore: ticket.ConfidenceScore,
			IsVague:         ticket.IsVague,
		},
	})
}
