package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	}
	ticket.Version = 1
	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.tickets {
		if filter.PropertyID != nil && stored.PropertyID != *filter.PropertyID {
			continue
		}
		if filter.OrganizationID != nil && stored.OrganizationID != *filter.OrganizationID {
			continue
		}
		if filter.AssignedTo != nil && (stored.AssignedTo == nil || *stored.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if stored.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, stored)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeTicketRepo) CountActiveByAssignee(ctx context.Context, filter repository.TicketFilter) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, stored := range r.tickets {
		if stored.AssignedTo == nil || stored.Status.Terminal() {
			continue
		}
		if filter.PropertyID != nil && stored.PropertyID != *filter.PropertyID {
			continue
		}
		if filter.OrganizationID != nil && stored.OrganizationID != *filter.OrganizationID {
			continue
		}
		counts[*stored.AssignedTo]++
	}
	return counts, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	seq     int
	records []domain.Activity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	activity.ID = fmt.Sprintf("activity-%d", r.seq)
	activity.CreatedAt = time.Now()
	r.records = append(r.records, *activity)
	return nil
}

func (r *fakeActivityRepo) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 5
	}
	var result []domain.Activity
	for i := len(r.records) - 1; i >= 0 && len(result) < limit; i-- {
		if r.records[i].TicketID == ticketID {
			result = append(result, r.records[i])
		}
	}
	return result, nil
}

func (r *fakeActivityRepo) forTicket(ticketID string) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Activity
	for _, record := range r.records {
		if record.TicketID == ticketID {
			result = append(result, record)
		}
	}
	return result
}

type fakeCategoryRepo struct {
	categories []domain.Category
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	for i := range r.categories {
		if r.categories[i].ID == id {
			copied := r.categories[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCategoryRepo) ListByProperty(ctx context.Context, propertyID string) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		if category.PropertyID == propertyID {
			result = append(result, category)
		}
	}
	return result, nil
}

type fakeMemberRepo struct {
	members []domain.Member
}

func (r *fakeMemberRepo) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	for i := range r.members {
		if r.members[i].ID == id {
			copied := r.members[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	for i := range r.members {
		if r.members[i].Email == email {
			copied := r.members[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) List(ctx context.Context, filter repository.MemberFilter) ([]domain.Member, error) {
	var result []domain.Member
	for _, member := range r.members {
		if filter.PropertyID != nil && (member.PropertyID == nil || *member.PropertyID != *filter.PropertyID) {
			continue
		}
		if filter.OrganizationID != nil && member.OrganizationID != *filter.OrganizationID {
			continue
		}
		if filter.Active != nil && member.Active != *filter.Active {
			continue
		}
		if len(filter.Roles) > 0 {
			matched := false
			for _, role := range filter.Roles {
				if member.Role == role {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, member)
	}
	return result, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}

type fixedClassifier struct {
	result Classification
}

func (c fixedClassifier) Classify(ticket *domain.Ticket, categories []domain.Category) Classification {
	return c.result
}

func strPtr(v string) *string { return &v }

func adminMember() *domain.Member {
	return &domain.Member{
		ID:             "member-admin",
		Name:           "Dana Admin",
		Role:           domain.RolePropertyAdmin,
		OrganizationID: "org-1",
		PropertyID:     strPtr("prop-1"),
		Active:         true,
	}
}

func resolverMember(id string, active, available bool) domain.Member {
	return domain.Member{
		ID:             id,
		Name:           "Resolver " + id,
		Role:           domain.RoleMST,
		OrganizationID: "org-1",
		PropertyID:     strPtr("prop-1"),
		IsAvailable:    available,
		Active:         active,
	}
}
