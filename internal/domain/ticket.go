package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusWaitlist   TicketStatus = "waitlist"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Terminal reports whether the status ends the ticket lifecycle.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Valid reports whether the value is one of the canonical statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusWaitlist, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Valid reports whether the value is one of the canonical priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for reported facility work.
type Ticket struct {
	ID              string
	TicketNumber    string
	Title           string
	Description     string
	CategoryID      *string
	ConfidenceScore int
	IsVague         bool
	Status          TicketStatus
	Priority        TicketPriority
	AssignedTo      *string
	RaisedBy        string
	PropertyID      string
	OrganizationID  string
	SLADeadline     *time.Time
	SLABreached     bool
	SLAPaused       bool
	SLAPausedAt     *time.Time
	SLAPausedTotal  time.Duration
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayStatus maps the stored status to the label the dashboards show.
// Open or waitlisted tickets that already carry an assignee read as
// "assigned"; the stored status itself is never aliased.
func (t *Ticket) DisplayStatus() string {
	if t.AssignedTo != nil && (t.Status == TicketStatusOpen || t.Status == TicketStatusWaitlist) {
		return "assigned"
	}
	return string(t.Status)
}

// InWaitlist reports whether the ticket belongs to the human-review queue.
// Terminal tickets never appear regardless of the vague flag.
func (t *Ticket) InWaitlist() bool {
	if t.Status.Terminal() {
		return false
	}
	return t.Status == TicketStatusWaitlist || t.IsVague
}
