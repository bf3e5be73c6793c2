package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/facilityhub/ticket-service/internal/cache"
	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
)

type assignmentFixture struct {
	service    *AssignmentService
	tickets    *fakeTicketRepo
	activity   *fakeActivityRepo
	dispatcher *recordingDispatcher
}

func newAssignmentFixture(t *testing.T, members []domain.Member) *assignmentFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	activity := newFakeActivityRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewAssignmentService(AssignmentDependencies{
		TicketRepo:   tickets,
		MemberRepo:   &fakeMemberRepo{members: members},
		ActivityRepo: activity,
		Dispatcher:   dispatcher,
		Cache:        cache.New(nil, zap.NewNop(), time.Minute, time.Minute),
	})
	return &assignmentFixture{service: svc, tickets: tickets, activity: activity, dispatcher: dispatcher}
}

func (fx *assignmentFixture) seedAssigned(t *testing.T, id, assignee string, status domain.TicketStatus) {
	t.Helper()
	ticket := &domain.Ticket{
		ID:             id,
		TicketNumber:   "FMT-" + id,
		Title:          "Ticket " + id,
		Status:         status,
		Priority:       domain.TicketPriorityMedium,
		RaisedBy:       "member-admin",
		PropertyID:     "prop-1",
		OrganizationID: "org-1",
	}
	if assignee != "" {
		ticket.AssignedTo = &assignee
	}
	if err := fx.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
}

func TestListWorkloadCountsAndRanks(t *testing.T) {
	t.Parallel()
	members := []domain.Member{
		resolverMember("mst-idle", true, true),
		resolverMember("mst-busy", true, true),
		resolverMember("mst-away", true, false),
		{ID: "admin-1", Name: "Admin", Role: domain.RolePropertyAdmin, OrganizationID: "org-1", PropertyID: strPtr("prop-1"), Active: true},
		resolverMember("mst-gone", false, true),
	}
	fx := newAssignmentFixture(t, members)

	fx.seedAssigned(t, "t1", "mst-busy", domain.TicketStatusOpen)
	fx.seedAssigned(t, "t2", "mst-busy", domain.TicketStatusInProgress)
	fx.seedAssigned(t, "t3", "mst-busy", domain.TicketStatusResolved)
	fx.seedAssigned(t, "t4", "mst-away", domain.TicketStatusOpen)

	prop := "prop-1"
	workloads, err := fx.service.ListWorkload(context.Background(), repository.TicketFilter{PropertyID: &prop})
	if err != nil {
		t.Fatalf("ListWorkload: %v", err)
	}

	if len(workloads) != 3 {
		t.Fatalf("resolvers = %d, want 3 (admins and inactive members excluded)", len(workloads))
	}
	if workloads[0].UserID != "mst-idle" {
		t.Errorf("best suggestion = %s, want the idle resolver first", workloads[0].UserID)
	}

	byID := make(map[string]domain.ResolverWorkload, len(workloads))
	for _, w := range workloads {
		byID[w.UserID] = w
	}
	if got := byID["mst-busy"].ActiveTickets; got != 2 {
		t.Errorf("mst-busy active = %d, want 2 (resolved ticket excluded)", got)
	}
	if got := byID["mst-idle"].Score; got != 100 {
		t.Errorf("idle score = %d, want 100", got)
	}
	if got := byID["mst-busy"].Score; got != 76 {
		t.Errorf("busy score = %d, want 76", got)
	}
	if got := byID["mst-away"].Score; got != 44 {
		t.Errorf("unavailable score = %d, want half of 88", got)
	}
}

func TestListWorkloadRequiresScope(t *testing.T) {
	t.Parallel()
	fx := newAssignmentFixture(t, nil)
	_, err := fx.service.ListWorkload(context.Background(), repository.TicketFilter{})
	if code := errorCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestForceAssignOverridesBalancer(t *testing.T) {
	t.Parallel()
	// Unavailable on purpose; the admin override must still land.
	members := []domain.Member{resolverMember("mst-away", true, false)}
	fx := newAssignmentFixture(t, members)
	fx.seedAssigned(t, "t1", "", domain.TicketStatusOpen)

	ticket, err := fx.service.ForceAssign(context.Background(), adminMember(), "t1", "mst-away")
	if err != nil {
		t.Fatalf("ForceAssign: %v", err)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != "mst-away" {
		t.Errorf("assignee = %v, want mst-away", ticket.AssignedTo)
	}
	if ticket.DisplayStatus() != "assigned" {
		t.Errorf("display status = %q, want assigned", ticket.DisplayStatus())
	}

	records := fx.activity.forTicket("t1")
	if len(records) != 1 || records[0].Action != domain.ActionAssigned {
		t.Fatalf("activity = %+v, want single assignment record", records)
	}
	published := fx.dispatcher.published()
	if len(published) != 1 || published[0].Type != events.EventTicketAssigned {
		t.Fatalf("events = %+v, want single ticket_assigned", published)
	}
}

func TestForceAssignRejectsInvalidTargets(t *testing.T) {
	t.Parallel()
	members := []domain.Member{
		{ID: "admin-1", Name: "Admin", Role: domain.RolePropertyAdmin, OrganizationID: "org-1", PropertyID: strPtr("prop-1"), Active: true},
		resolverMember("mst-gone", false, true),
		{ID: "mst-other", Name: "Other Site", Role: domain.RoleMST, OrganizationID: "org-1", PropertyID: strPtr("prop-2"), Active: true},
	}
	fx := newAssignmentFixture(t, members)
	fx.seedAssigned(t, "t1", "", domain.TicketStatusOpen)

	for _, userID := range []string{"admin-1", "mst-gone", "mst-other", "nobody"} {
		_, err := fx.service.ForceAssign(context.Background(), adminMember(), "t1", userID)
		if code := errorCode(t, err); code != "INVALID_RESOLVER" {
			t.Errorf("target %s: code = %q, want INVALID_RESOLVER", userID, code)
		}
	}
}

func TestForceAssignTerminalRejected(t *testing.T) {
	t.Parallel()
	fx := newAssignmentFixture(t, []domain.Member{resolverMember("mst-1", true, true)})
	fx.seedAssigned(t, "t1", "", domain.TicketStatusClosed)

	_, err := fx.service.ForceAssign(context.Background(), adminMember(), "t1", "mst-1")
	if code := errorCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestDistributionBuckets(t *testing.T) {
	t.Parallel()
	workloads := []domain.ResolverWorkload{
		{UserID: "a", ActiveTickets: 0},
		{UserID: "b", ActiveTickets: 1},
		{UserID: "c", ActiveTickets: 2},
		{UserID: "d", ActiveTickets: 4},
		{UserID: "e", ActiveTickets: 5},
		{UserID: "f", ActiveTickets: 9},
	}

	buckets := DistributionBuckets(workloads)
	want := map[string]int{"0": 1, "1-2": 2, "3-4": 1, "5-6": 1, "7+": 1}
	for _, bucket := range buckets {
		if bucket.Count != want[bucket.Label] {
			t.Errorf("bucket %s = %d, want %d", bucket.Label, bucket.Count, want[bucket.Label])
		}
	}
}

func TestWorkloadScore(t *testing.T) {
	t.Parallel()
	cases := []struct {
		active    int
		available bool
		want      int
	}{
		{0, true, 100},
		{2, true, 76},
		{8, true, 4},
		{9, true, 0},
		{0, false, 50},
		{9, false, 0},
	}
	for _, tc := range cases {
		if got := workloadScore(tc.active, tc.available); got != tc.want {
			t.Errorf("workloadScore(%d, %v) = %d, want %d", tc.active, tc.available, got, tc.want)
		}
	}
}
