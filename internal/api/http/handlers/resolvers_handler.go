package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/api/dto"
	"github.com/facilityhub/ticket-service/internal/service"
)

// ResolversHandler exposes resolver workload and distribution views.
type ResolversHandler struct {
	assignment *service.AssignmentService
}

// NewResolversHandler constructs the handler.
func NewResolversHandler(assignment *service.AssignmentService) *ResolversHandler {
	return &ResolversHandler{assignment: assignment}
}

// Workload GET /api/resolvers/workload?propertyId=|organizationId=.
func (h *ResolversHandler) Workload(c *fiber.Ctx) error {
	workloads, err := h.assignment.ListWorkload(c.Context(), scopeFilter(c))
	if err != nil {
		return err
	}
	resolvers := make([]dto.ResolverResponse, 0, len(workloads))
	for _, w := range workloads {
		resolvers = append(resolvers, dto.ResolverResponse{
			UserID:        w.UserID,
			Name:          w.Name,
			ActiveTickets: w.ActiveTickets,
			CurrentFloor:  w.CurrentFloor,
			IsAvailable:   w.IsAvailable,
			Score:         w.Score,
		})
	}
	buckets := service.DistributionBuckets(workloads)
	distribution := make([]dto.WorkloadBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		distribution = append(distribution, dto.WorkloadBucketResponse{
			Label: b.Label,
			Count: b.Count,
		})
	}
	return c.JSON(fiber.Map{"workload": dto.WorkloadResponse{
		Resolvers:    resolvers,
		Distribution: distribution,
	}})
}
