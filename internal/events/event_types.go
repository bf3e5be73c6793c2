package events

import (
	"time"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated            EventType = "ticket_created"
	EventTicketStatusChanged      EventType = "ticket_status_changed"
	EventTicketAssigned           EventType = "ticket_assigned"
	EventTicketClassified         EventType = "ticket_classified"
	EventClassificationOverridden EventType = "classification_overridden"
	EventSLAPaused                EventType = "sla_paused"
	EventSLAResumed               EventType = "sla_resumed"
	EventTicketDeleted            EventType = "ticket_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	MemberID string      `json:"member_id"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services. Boards that want
// push-style updates subscribe here instead of polling the list endpoints.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	PropertyID      string                `json:"property_id"`
	Priority        domain.TicketPriority `json:"priority"`
	Title           string                `json:"title"`
	CategoryID      *string               `json:"category_id,omitempty"`
	ConfidenceScore int                   `json:"confidence_score"`
	IsVague         bool                  `json:"is_vague"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAssignee *string `json:"old_assignee,omitempty"`
	NewAssignee *string `json:"new_assignee,omitempty"`
}

// TicketClassifiedPayload payload.
type TicketClassifiedPayload struct {
	OldCategoryID   *string `json:"old_category_id,omitempty"`
	NewCategoryID   *string `json:"new_category_id,omitempty"`
	ConfidenceScore int     `json:"confidence_score"`
	IsVague         bool    `json:"is_vague"`
}

// SLAPausePayload payload for pause/resume events.
type SLAPausePayload struct {
	Paused   bool       `json:"paused"`
	Reason   string     `json:"reason,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketNumber string `json:"ticket_number"`
}
