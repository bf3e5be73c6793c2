package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/events"
	"github.com/facilityhub/ticket-service/internal/repository"
)

type slaFixture struct {
	service    *SLAService
	tickets    *fakeTicketRepo
	activity   *fakeActivityRepo
	dispatcher *recordingDispatcher
}

func newSLAFixture(t *testing.T) *slaFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	activity := newFakeActivityRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewSLAService(SLADependencies{
		TicketRepo:   tickets,
		ActivityRepo: activity,
		Dispatcher:   dispatcher,
	})
	return &slaFixture{service: svc, tickets: tickets, activity: activity, dispatcher: dispatcher}
}

func (fx *slaFixture) seed(t *testing.T, mutate func(*domain.Ticket)) *domain.Ticket {
	t.Helper()
	deadline := time.Now().Add(4 * time.Hour)
	ticket := &domain.Ticket{
		TicketNumber:   "FMT-SLA00001",
		Title:          "Broken entry gate",
		Status:         domain.TicketStatusInProgress,
		Priority:       domain.TicketPriorityHigh,
		RaisedBy:       "member-admin",
		PropertyID:     "prop-1",
		OrganizationID: "org-1",
		SLADeadline:    &deadline,
	}
	if mutate != nil {
		mutate(ticket)
	}
	if err := fx.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func TestPauseSLA(t *testing.T) {
	t.Parallel()
	fx := newSLAFixture(t)
	ticket := fx.seed(t, nil)

	paused, err := fx.service.PauseSLA(context.Background(), adminMember(), ticket.ID, true, "awaiting parts")
	if err != nil {
		t.Fatalf("PauseSLA: %v", err)
	}
	if !paused.SLAPaused || paused.SLAPausedAt == nil {
		t.Error("pause did not set the paused state")
	}
	if state, _ := SLADisplay(paused, time.Now()); state != SLAStatePaused {
		t.Errorf("state = %q, want paused", state)
	}

	records := fx.activity.forTicket(ticket.ID)
	if len(records) != 1 || records[0].Action != domain.ActionSLAPaused {
		t.Fatalf("activity = %+v, want single sla pause record", records)
	}
	if records[0].NewValue == nil || !strings.Contains(*records[0].NewValue, "awaiting parts") {
		t.Errorf("pause reason missing from audit value %v", records[0].NewValue)
	}
	published := fx.dispatcher.published()
	if len(published) != 1 || published[0].Type != events.EventSLAPaused {
		t.Fatalf("events = %+v, want single sla_paused", published)
	}
}

func TestResumeCreditsDeadline(t *testing.T) {
	t.Parallel()
	fx := newSLAFixture(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(4 * time.Hour)
	pausedAt := start.Add(time.Hour)
	ticket := fx.seed(t, func(tk *domain.Ticket) {
		tk.SLADeadline = &deadline
		tk.SLAPaused = true
		tk.SLAPausedAt = &pausedAt
	})

	resumedAt := pausedAt.Add(90 * time.Minute)
	fx.service.now = func() time.Time { return resumedAt }

	resumed, err := fx.service.PauseSLA(context.Background(), adminMember(), ticket.ID, false, "")
	if err != nil {
		t.Fatalf("PauseSLA resume: %v", err)
	}
	if resumed.SLAPaused || resumed.SLAPausedAt != nil {
		t.Error("resume did not clear the paused state")
	}
	wantDeadline := deadline.Add(90 * time.Minute)
	if resumed.SLADeadline == nil || !resumed.SLADeadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v (shifted by the paused span)", resumed.SLADeadline, wantDeadline)
	}
	if resumed.SLAPausedTotal != 90*time.Minute {
		t.Errorf("paused total = %v, want 90m", resumed.SLAPausedTotal)
	}
	if resumed.SLABreached {
		t.Error("resume within the shifted window should not read as breached")
	}

	records := fx.activity.forTicket(ticket.ID)
	if len(records) != 1 || records[0].Action != domain.ActionSLAResumed {
		t.Fatalf("activity = %+v, want single sla resume record", records)
	}
}

func TestResumePastShiftedDeadlineBreaches(t *testing.T) {
	t.Parallel()
	fx := newSLAFixture(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(time.Hour)
	pausedAt := start.Add(30 * time.Minute)
	ticket := fx.seed(t, func(tk *domain.Ticket) {
		tk.SLADeadline = &deadline
		tk.SLAPaused = true
		tk.SLAPausedAt = &pausedAt
	})

	// The whole 3h10m span is credited back, so the shifted deadline lands
	// at resume time plus the original 30m of slack.
	fx.service.now = func() time.Time { return pausedAt.Add(10 * time.Minute).Add(3 * time.Hour) }

	resumed, err := fx.service.PauseSLA(context.Background(), adminMember(), ticket.ID, false, "")
	if err != nil {
		t.Fatalf("PauseSLA resume: %v", err)
	}
	if resumed.SLABreached {
		t.Error("credited resume should leave the remaining window intact")
	}
	if state, _ := SLADisplay(resumed, fx.service.now()); state == SLAStateBreached {
		t.Error("display state should not be breached immediately after a credited resume")
	}
}

func TestPauseSLAStateGuards(t *testing.T) {
	t.Parallel()
	fx := newSLAFixture(t)

	pausedAt := time.Now()
	pausedTicket := fx.seed(t, func(tk *domain.Ticket) {
		tk.SLAPaused = true
		tk.SLAPausedAt = &pausedAt
	})
	runningTicket := fx.seed(t, nil)
	closedTicket := fx.seed(t, func(tk *domain.Ticket) { tk.Status = domain.TicketStatusClosed })

	if _, err := fx.service.PauseSLA(context.Background(), adminMember(), pausedTicket.ID, true, ""); errorCode(t, err) != "VALIDATION_FAILED" {
		t.Error("double pause accepted")
	}
	if _, err := fx.service.PauseSLA(context.Background(), adminMember(), runningTicket.ID, false, ""); errorCode(t, err) != "VALIDATION_FAILED" {
		t.Error("resume of a running ticket accepted")
	}
	if _, err := fx.service.PauseSLA(context.Background(), adminMember(), closedTicket.ID, true, ""); errorCode(t, err) != "VALIDATION_FAILED" {
		t.Error("pause of a terminal ticket accepted")
	}
	if _, err := fx.service.PauseSLA(context.Background(), adminMember(), "missing", true, ""); errorCode(t, err) != "NOT_FOUND" {
		t.Error("pause of a missing ticket not reported as NOT_FOUND")
	}
}

func TestListSLARiskAndBreachedQueues(t *testing.T) {
	t.Parallel()
	fx := newSLAFixture(t)

	now := time.Now()
	seedWithDeadline := func(id string, deadline time.Time, mutate func(*domain.Ticket)) {
		fx.seed(t, func(tk *domain.Ticket) {
			tk.ID = id
			tk.SLADeadline = &deadline
			if mutate != nil {
				mutate(tk)
			}
		})
	}

	seedWithDeadline("t-risk", now.Add(30*time.Minute), nil)
	seedWithDeadline("t-urgent", now.Add(10*time.Minute), nil)
	seedWithDeadline("t-breached", now.Add(-time.Hour), nil)
	seedWithDeadline("t-paused", now.Add(20*time.Minute), func(tk *domain.Ticket) {
		pausedAt := now
		tk.SLAPaused = true
		tk.SLAPausedAt = &pausedAt
	})
	seedWithDeadline("t-safe", now.Add(6*time.Hour), nil)
	seedWithDeadline("t-resolved", now.Add(-time.Hour), func(tk *domain.Ticket) {
		tk.Status = domain.TicketStatusResolved
	})

	prop := "prop-1"
	filter := repository.TicketFilter{PropertyID: &prop}

	risk, err := fx.service.ListSLARisk(context.Background(), filter)
	if err != nil {
		t.Fatalf("ListSLARisk: %v", err)
	}
	riskIDs := ticketIDs(risk)
	if len(riskIDs) != 2 || !riskIDs["t-risk"] || !riskIDs["t-urgent"] {
		t.Errorf("risk queue = %v, want exactly t-risk and t-urgent", riskIDs)
	}

	breached, err := fx.service.ListBreached(context.Background(), filter)
	if err != nil {
		t.Fatalf("ListBreached: %v", err)
	}
	breachedIDs := ticketIDs(breached)
	if len(breachedIDs) != 1 || !breachedIDs["t-breached"] {
		t.Errorf("breached queue = %v, want exactly t-breached", breachedIDs)
	}
}

func ticketIDs(tickets []domain.Ticket) map[string]bool {
	ids := make(map[string]bool, len(tickets))
	for _, ticket := range tickets {
		ids[ticket.ID] = true
	}
	return ids
}
