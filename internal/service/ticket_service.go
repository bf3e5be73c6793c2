package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// TicketService owns ticket records and enforces the status state machine.
type TicketService struct {
	tickets    repository.TicketRepository
	activity   repository.ActivityRepository
	categories repository.CategoryRepository
	members    repository.MemberRepository
	dispatcher events.Dispatcher
	classifier Classifier
	deadline   DeadlinePolicy
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ActivityRepo repository.ActivityRepository
	CategoryRepo repository.CategoryRepository
	MemberRepo   repository.MemberRepository
	Dispatcher   events.Dispatcher
	Classifier   Classifier
	Deadline     DeadlinePolicy
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	deadline := deps.Deadline
	if deadline == nil {
		deadline = DefaultDeadlinePolicy
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		activity:   deps.ActivityRepo,
		categories: deps.CategoryRepo,
		members:    deps.MemberRepo,
		dispatcher: deps.Dispatcher,
		classifier: classifier,
		deadline:   deadline,
		logger:     logger,
		now:        time.Now,
	}
}

// TicketCreateInput describes a ticket submission.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	PropertyID  string
}

// TicketPatch carries the partial update fields for a ticket. Version is the
// optimistic-lock token the caller read; a stale version yields CONFLICT.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	AssignedTo  *string
	Version     int64
}

// The state machine: no transition leaves closed, resolved may be closed or
// reopened, and waitlist is never a patch target (the classification engine
// owns waitlist entry via the vague flag).
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusWaitlist:   {domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusOpen, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CreateTicket accepts a submission, classifies it and computes the SLA
// deadline before persisting.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Member, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.PropertyID == "" {
		return nil, apperrors.NewValidationError("property_id required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	now := s.now()
	ticket := &domain.Ticket{
		TicketNumber:   generateTicketNumber(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		RaisedBy:       actor.ID,
		PropertyID:     input.PropertyID,
		OrganizationID: actor.OrganizationID,
	}

	categories, err := s.categories.ListByProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	classification := s.classifier.Classify(ticket, categories)
	ticket.CategoryID = classification.CategoryID
	ticket.ConfidenceScore = classification.Confidence
	ticket.IsVague = classification.Vague()

	deadline := s.deadline(categoryByID(categories, classification.CategoryID), priority, now)
	ticket.SLADeadline = &deadline

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	newValue := string(ticket.Status)
	if err := s.activity.Create(ctx, &domain.Activity{
		TicketID: ticket.ID,
		Action:   domain.ActionCreated,
		NewValue: &newValue,
		Actor:    actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			PropertyID:      ticket.PropertyID,
			Priority:        ticket.Priority,
			Title:           ticket.Title,
			CategoryID:      ticket.CategoryID,
			ConfidenceScore: ticket.ConfidenceScore,
			IsVague:         ticket.IsVague,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets newest-first for one property or a whole
// organization.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := ValidateScope(filter); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// UpdateTicket applies a partial update, validating status transitions and
// the optimistic-lock version. Exactly one activity record is written per
// successful call.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.Member, id string, patch TicketPatch) (*domain.Ticket, error) {
	if patch.Version <= 0 {
		return nil, apperrors.NewValidationError("version required", nil)
	}
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Version != patch.Version {
		return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{
			"current_version": ticket.Version,
		})
	}

	oldStatus := ticket.Status
	oldAssignee := ticket.AssignedTo
	var changedFields []string

	if patch.Status != nil && *patch.Status != ticket.Status {
		next := *patch.Status
		if !next.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
		}
		if next == domain.TicketStatusWaitlist {
			return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
		}
		if !isValidTransition(ticket.Status, next) {
			return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
		}
		ticket.Status = next
		if next.Terminal() {
			ticket.SLAPaused = false
			ticket.SLAPausedAt = nil
		}
		changedFields = append(changedFields, "status")
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		if !patch.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		ticket.Priority = *patch.Priority
		changedFields = append(changedFields, "priority")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != ticket.Title {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		ticket.Title = title
		changedFields = append(changedFields, "title")
	}
	if patch.Description != nil && *patch.Description != ticket.Description {
		ticket.Description = *patch.Description
		changedFields = append(changedFields, "description")
	}
	if patch.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *patch.AssignedTo) {
		if err := s.validateResolver(ctx, *patch.AssignedTo, ticket.PropertyID); err != nil {
			return nil, err
		}
		ticket.AssignedTo = patch.AssignedTo
		changedFields = append(changedFields, "assigned_to")
	}

	if len(changedFields) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	record := s.patchActivity(ticket, oldStatus, oldAssignee, changedFields, actor.Name)
	if err := s.activity.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.Status != oldStatus {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
		})
	} else if !sameAssignee(oldAssignee, ticket.AssignedTo) {
		s.publish(ctx, actor, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Payload:  events.TicketAssignedPayload{OldAssignee: oldAssignee, NewAssignee: ticket.AssignedTo},
		})
	}
	return ticket, nil
}

// DeleteTicket hard-deletes a ticket. The final audit entry goes to the
// structured log because the row, and its activity trail, are gone after
// the cascade.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Member, id string) error {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}

	s.logger.Info("ticket deleted",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("actor", actor.Name),
		zap.String("status", string(ticket.Status)),
	)

	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Payload:  events.TicketDeletedPayload{TicketNumber: ticket.TicketNumber},
	})
	return nil
}

// ListActivity returns a ticket's recent audit trail, newest-first. The
// default slice is the five entries the dashboard panel shows.
func (s *TicketService) ListActivity(ctx context.Context, ticketID string, limit int) ([]domain.Activity, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	records, err := s.activity.ListByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func (s *TicketService) validateResolver(ctx context.Context, userID, propertyID string) error {
	member, err := s.members.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidResolver(userID, nil)
		}
		return apperrors.MapError(err)
	}
	if !member.Role.Resolver() || !member.Active {
		return apperrors.NewInvalidResolver(userID, nil)
	}
	if member.PropertyID == nil || *member.PropertyID != propertyID {
		return apperrors.NewInvalidResolver(userID, map[string]any{"property_id": propertyID})
	}
	return nil
}

func (s *TicketService) patchActivity(ticket *domain.Ticket, oldStatus domain.TicketStatus, oldAssignee *string, changed []string, actor string) *domain.Activity {
	record := &domain.Activity{TicketID: ticket.ID, Actor: actor}
	switch {
	case ticket.Status != oldStatus:
		oldVal := string(oldStatus)
		newVal := string(ticket.Status)
		record.Action = domain.ActionStatusChanged
		record.OldValue = &oldVal
		record.NewValue = &newVal
	case !sameAssignee(oldAssignee, ticket.AssignedTo):
		record.Action = domain.ActionAssigned
		record.OldValue = oldAssignee
		record.NewValue = ticket.AssignedTo
	default:
		fields := strings.Join(changed, ",")
		record.Action = domain.ActionUpdated
		record.NewValue = &fields
	}
	return record
}

func (s *TicketService) publish(ctx context.Context, actor *domain.Member, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Actor = events.Actor{MemberID: actor.ID, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

// ValidateScope checks that a listing filter targets exactly one property or
// one organization.
func ValidateScope(filter repository.TicketFilter) error {
	if filter.PropertyID == nil && filter.OrganizationID == nil {
		return apperrors.NewValidationError("propertyId or organizationId required", nil)
	}
	if filter.PropertyID != nil && filter.OrganizationID != nil {
		return apperrors.NewValidationError("propertyId and organizationId are mutually exclusive", nil)
	}
	return nil
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func categoryByID(categories []domain.Category, id *string) *domain.Category {
	if id == nil {
		return nil
	}
	for i := range categories {
		if categories[i].ID == *id {
			return &categories[i]
		}
	}
	return nil
}

func generateTicketNumber() string {
	return "FMT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
