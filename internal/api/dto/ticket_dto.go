package dto

import (
	"time"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	PropertyID  string                `json:"property_id"`
}

// UpdateTicketRequest carries a partial ticket patch. Version is the value
// the client last read; the server rejects stale versions with CONFLICT.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	AssignedTo  *string                `json:"assigned_to"`
	Version     int64                  `json:"version"`
}

// PauseSLARequest payload.
type PauseSLARequest struct {
	Pause  bool   `json:"pause"`
	Reason string `json:"reason"`
}

// OverrideClassificationRequest payload; CategoryID may be the literal
// "reset" sentinel.
type OverrideClassificationRequest struct {
	CategoryID string `json:"category_id"`
}

// ForceAssignRequest payload.
type ForceAssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// TicketResponse is the full wire representation of a ticket, including the
// read-time SLA display state.
type TicketResponse struct {
	ID                  string                `json:"id"`
	TicketNumber        string                `json:"ticket_number"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	CategoryID          *string               `json:"category_id"`
	ConfidenceScore     int                   `json:"confidence_score"`
	IsVague             bool                  `json:"is_vague"`
	Status              domain.TicketStatus   `json:"status"`
	DisplayStatus       string                `json:"display_status"`
	Priority            domain.TicketPriority `json:"priority"`
	AssignedTo          *string               `json:"assigned_to"`
	RaisedBy            string                `json:"raised_by"`
	PropertyID          string                `json:"property_id"`
	OrganizationID      string                `json:"organization_id"`
	SLADeadline         *time.Time            `json:"sla_deadline"`
	SLAPaused           bool                  `json:"sla_paused"`
	SLAState            string                `json:"sla_state"`
	SLARemainingSeconds int64                 `json:"sla_remaining_seconds"`
	Version             int64                 `json:"version"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID        string                `json:"id"`
	TicketID  string                `json:"ticket_id"`
	Action    domain.ActivityAction `json:"action"`
	OldValue  *string               `json:"old_value"`
	NewValue  *string               `json:"new_value"`
	Actor     string                `json:"user"`
	CreatedAt time.Time             `json:"created_at"`
}

// CategoryResponse is one entry of a property's ticket config.
type CategoryResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
