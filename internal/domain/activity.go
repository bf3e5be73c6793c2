package domain

import "time"

// ActivityAction tags what kind of change an activity record captures.
type ActivityAction string

const (
	ActionCreated                ActivityAction = "created"
	ActionUpdated                ActivityAction = "updated"
	ActionStatusChanged          ActivityAction = "status_changed"
	ActionAssigned               ActivityAction = "assigned"
	ActionSLAPaused              ActivityAction = "sla_paused"
	ActionSLAResumed             ActivityAction = "sla_resumed"
	ActionReclassified           ActivityAction = "reclassified"
	ActionClassificationOverride ActivityAction = "classification_overridden"
)

// Activity is an append-only audit record for a single state-changing
// operation on a ticket. Records are never mutated or deleted once written.
type Activity struct {
	ID        string
	TicketID  string
	Action    ActivityAction
	OldValue  *string
	NewValue  *string
	Actor     string
	CreatedAt time.Time
}
