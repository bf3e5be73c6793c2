package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/api/dto"
	"github.com/facilityhub/ticket-service/internal/auth"
	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/repository"
	"github.com/facilityhub/ticket-service/internal/service"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// TicketsHandler exposes the ticket workflow endpoints the admin boards
// consume.
type TicketsHandler struct {
	tickets        *service.TicketService
	classification *service.ClassificationService
	sla            *service.SLAService
	assignment     *service.AssignmentService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService, classification *service.ClassificationService, sla *service.SLAService, assignment *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{
		tickets:        tickets,
		classification: classification,
		sla:            sla,
		assignment:     assignment,
	}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	propertyID := req.PropertyID
	if propertyID == "" && actor.PropertyID != nil {
		propertyID = *actor.PropertyID
	}
	ticket, err := h.tickets.CreateTicket(c.Context(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		PropertyID:  propertyID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// ListTickets GET /api/tickets?propertyId=|organizationId=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.Context(), scopeFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": ticketResponses(tickets)})
}

// ListWaitlist GET /api/tickets/waitlist.
func (h *TicketsHandler) ListWaitlist(c *fiber.Ctx) error {
	tickets, err := h.classification.ListWaitlist(c.Context(), scopeFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": ticketResponses(tickets)})
}

// ListSLARisk GET /api/tickets/sla-risk.
func (h *TicketsHandler) ListSLARisk(c *fiber.Ctx) error {
	tickets, err := h.sla.ListSLARisk(c.Context(), scopeFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": ticketResponses(tickets)})
}

// ListBreached GET /api/tickets/breached.
func (h *TicketsHandler) ListBreached(c *fiber.Ctx) error {
	tickets, err := h.sla.ListBreached(c.Context(), scopeFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": ticketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.Context(), actor, c.Params("id"), service.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		Version:     req.Version,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PauseSLA PATCH /api/tickets/:id/pause-sla.
func (h *TicketsHandler) PauseSLA(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PauseSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.sla.PauseSLA(c.Context(), actor, c.Params("id"), req.Pause, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// Reclassify POST /api/tickets/:id/reclassify.
func (h *TicketsHandler) Reclassify(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.classification.Reclassify(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// OverrideClassification PATCH /api/tickets/:id/override-classification.
func (h *TicketsHandler) OverrideClassification(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.OverrideClassificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" {
		return apperrors.NewValidationError("category_id required", nil)
	}
	ticket, err := h.classification.OverrideClassification(c.Context(), actor, c.Params("id"), req.CategoryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// ForceAssign POST /api/tickets/:id/assign.
func (h *TicketsHandler) ForceAssign(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ForceAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssignedTo == "" {
		return apperrors.NewValidationError("assigned_to required", nil)
	}
	ticket, err := h.assignment.ForceAssign(c.Context(), actor, c.Params("id"), req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket, time.Now())})
}

// ListActivity GET /api/tickets/:id/activity.
func (h *TicketsHandler) ListActivity(c *fiber.Ctx) error {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := h.tickets.ListActivity(c.Context(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.ActivityResponse{
			ID:        record.ID,
			TicketID:  record.TicketID,
			Action:    record.Action,
			OldValue:  record.OldValue,
			NewValue:  record.NewValue,
			Actor:     record.Actor,
			CreatedAt: record.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"activities": items})
}

func actorFromContext(c *fiber.Ctx) (*domain.Member, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Member == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Member, nil
}

func scopeFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if propertyID := c.Query("propertyId"); propertyID != "" {
		filter.PropertyID = &propertyID
	}
	if organizationID := c.Query("organizationId"); organizationID != "" {
		filter.OrganizationID = &organizationID
	}
	return filter
}

func ticketResponse(ticket *domain.Ticket, now time.Time) dto.TicketResponse {
	state, remaining := service.SLADisplay(ticket, now)
	if remaining < 0 {
		remaining = 0
	}
	return dto.TicketResponse{
		ID:                  ticket.ID,
		TicketNumber:        ticket.TicketNumber,
		Title:               ticket.Title,
		Description:         ticket.Description,
		CategoryID:          ticket.CategoryID,
		ConfidenceScore:     ticket.ConfidenceScore,
		IsVague:             ticket.IsVague,
		Status:              ticket.Status,
		DisplayStatus:       ticket.DisplayStatus(),
		Priority:            ticket.Priority,
		AssignedTo:          ticket.AssignedTo,
		RaisedBy:            ticket.RaisedBy,
		PropertyID:          ticket.PropertyID,
		OrganizationID:      ticket.OrganizationID,
		SLADeadline:         ticket.SLADeadline,
		SLAPaused:           ticket.SLAPaused,
		SLAState:            string(state),
		SLARemainingSeconds: int64(remaining / time.Second),
		Version:             ticket.Version,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	now := time.Now()
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], now))
	}
	return items
}
