package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/api/dto"
	"github.com/facilityhub/ticket-service/internal/cache"
	"github.com/facilityhub/ticket-service/internal/domain"
	"github.com/facilityhub/ticket-service/internal/repository"
	apperrors "github.com/facilityhub/ticket-service/pkg/util"
)

// PropertiesHandler serves per-property ticket configuration.
type PropertiesHandler struct {
	categories repository.CategoryRepository
	cache      *cache.Cache
}

// NewPropertiesHandler constructs the handler.
func NewPropertiesHandler(categories repository.CategoryRepository, configCache *cache.Cache) *PropertiesHandler {
	return &PropertiesHandler{categories: categories, cache: configCache}
}

// TicketConfig GET /api/properties/:id/ticket-config. The category list
// changes rarely, so it is served through the redis cache.
func (h *PropertiesHandler) TicketConfig(c *fiber.Ctx) error {
	propertyID := c.Params("id")
	if propertyID == "" {
		return apperrors.NewValidationError("property id required", nil)
	}

	categories, ok := h.cache.GetCategories(c.Context(), propertyID)
	if !ok {
		var err error
		categories, err = h.categories.ListByProperty(c.Context(), propertyID)
		if err != nil {
			return apperrors.MapError(err)
		}
		h.cache.SetCategories(c.Context(), propertyID, categories)
	}

	return c.JSON(fiber.Map{"categories": categoryResponses(categories)})
}

func categoryResponses(categories []domain.Category) []dto.CategoryResponse {
	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.CategoryResponse{
			ID:   category.ID,
			Code: category.Code,
			Name: category.Name,
		})
	}
	return items
}
