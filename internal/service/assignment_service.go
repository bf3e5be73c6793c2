package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facilityhub/ticket-service/internal/cache"
	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// AssignmentService tracks resolver capacity and performs admin assignment.
type AssignmentService struct {
	tickets    repository.TicketRepository
	members    repository.MemberRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	cache      *cache.Cache
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	MemberRepo   repository.MemberRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
	Cache        *cache.Cache
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		members:    deps.MemberRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		now:        time.Now,
	}
}

// WorkloadBucket is a histogram band for the distribution chart.
type WorkloadBucket struct {
	Label string
	Count int
}

// ListWorkload recomputes each resolver's active-ticket count, availability
// and ranking score for the requested scope. Results are ordered best
// suggestion first and snapshot-cached briefly to absorb board polling.
func (s *AssignmentService) ListWorkload(ctx context.Context, filter repository.TicketFilter) ([]domain.ResolverWorkload, error) {
	if err := ValidateScope(filter); err != nil {
		return nil, err
	}

	scope := scopeKey(filter)
	if cached, ok := s.cache.GetWorkload(ctx, scope); ok {
		return cached, nil
	}

	memberFilter := repository.MemberFilter{
		PropertyID:     filter.PropertyID,
		OrganizationID: filter.OrganizationID,
		Roles:          []domain.Role{domain.RoleSecurity, domain.RoleMST},
		Active:         ptrBool(true),
	}
	resolvers, err := s.members.List(ctx, memberFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	counts, err := s.tickets.CountActiveByAssignee(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	workloads := make([]domain.ResolverWorkload, 0, len(resolvers))
	for _, resolver := range resolvers {
		active := counts[resolver.ID]
		workloads = append(workloads, domain.ResolverWorkload{
			UserID:        resolver.ID,
			Name:          resolver.Name,
			ActiveTickets: active,
			CurrentFloor:  resolver.CurrentFloor,
			IsAvailable:   resolver.IsAvailable,
			Score:         workloadScore(active, resolver.IsAvailable),
		})
	}
	sort.SliceStable(workloads, func(i, j int) bool {
		if workloads[i].Score != workloads[j].Score {
			return workloads[i].Score > workloads[j].Score
		}
		return workloads[i].Name < workloads[j].Name
	})

	s.cache.SetWorkload(ctx, scope, workloads)
	return workloads, nil
}

// ForceAssign directly sets a ticket's assignee, bypassing balancing.
// Availability is intentionally not checked; admin intent wins. The target
// must still be an active resolver on the ticket's property.
func (s *AssignmentService) ForceAssign(ctx context.Context, actor *domain.Member, ticketID, resolverUserID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("cannot assign a resolved or closed ticket", nil)
	}

	resolver, err := s.members.GetByID(ctx, resolverUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidResolver(resolverUserID, nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !resolver.Role.Resolver() || !resolver.Active {
		return nil, apperrors.NewInvalidResolver(resolverUserID, nil)
	}
	if resolver.PropertyID == nil || *resolver.PropertyID != ticket.PropertyID {
		return nil, apperrors.NewInvalidResolver(resolverUserID, map[string]any{"property_id": ticket.PropertyID})
	}

	oldAssignee := ticket.AssignedTo
	ticket.AssignedTo = &resolver.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.activity.Create(ctx, &domain.Activity{
		TicketID: ticket.ID,
		Action:   domain.ActionAssigned,
		OldValue: oldAssignee,
		NewValue: ticket.AssignedTo,
		Actor:    actor.Name,
	}); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			Actor:     events.Actor{MemberID: actor.ID, Role: actor.Role},
			Timestamp: s.now(),
			Payload:   events.TicketAssignedPayload{OldAssignee: oldAssignee, NewAssignee: ticket.AssignedTo},
		})
	}

	s.cache.InvalidateWorkload(ctx, "property:"+ticket.PropertyID)
	s.cache.InvalidateWorkload(ctx, "org:"+ticket.OrganizationID)
	return ticket, nil
}

// DistributionBuckets partitions workloads into the histogram bands the
// dashboard charts: {0, 1-2, 3-4, 5-6, 7+} active tickets.
func DistributionBuckets(workloads []domain.ResolverWorkload) []WorkloadBucket {
	buckets := []WorkloadBucket{
		{Label: "0"},
		{Label: "1-2"},
		{Label: "3-4"},
		{Label: "5-6"},
		{Label: "7+"},
	}
	for _, w := range workloads {
		switch {
		case w.ActiveTickets == 0:
			buckets[0].Count++
		case w.ActiveTickets <= 2:
			buckets[1].Count++
		case w.ActiveTickets <= 4:
			buckets[2].Count++
		case w.ActiveTickets <= 6:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

// workloadScore ranks assignment suggestions: fewer active tickets score
// higher, and unavailable resolvers are halved rather than hidden.
func workloadScore(activeTickets int, available bool) int {
	score := 100 - 12*activeTickets
	if score < 0 {
		score = 0
	}
	if !available {
		score /= 2
	}
	return score
}

func scopeKey(filter repository.TicketFilter) string {
	if filter.PropertyID != nil {
		return "property:" + *filter.PropertyID
	}
	if filter.OrganizationID != nil {
		return "org:" + *filter.OrganizationID
	}
	return "all"
}

func ptrBool(v bool) *bool {
	return &v
}
