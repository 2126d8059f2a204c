package catalog

import (
	"errors"

	"geomancer/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for catalog listings.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	api := app.Group("/api")
	api.Get("/geo-types", h.HandleGeoTypes)
	api.Get("/data-sources", h.HandleDataSources)
}

// HandleGeoTypes lists geography types.
// @Summary List geography types
// @Tags catalog
// @Produce json
// @Param geo_type query string false "Only this machine name"
// @Success 200 {array} geo.Type
// @Failure 400 {object} map[string]string "Unknown geography type"
// @Router /api/geo-types [get]
func (h *Handler) HandleGeoTypes(c *fiber.Ctx) error {
	types, err := h.service.GeoTypes(c.Query("geo_type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(types)
}

// HandleDataSources lists data sources and their tables.
// @Summary List data sources
// @Description Adapters that could not be constructed are listed with an error and no tables.
// @Tags catalog
// @Produce json
// @Param geo_type query string false "Only tables supporting this geography type"
// @Success 200 {array} DataSource
// @Failure 400 {object} map[string]string "Unknown geography type"
// @Router /api/data-sources [get]
func (h *Handler) HandleDataSources(c *fiber.Ctx) error {
	sources, err := h.service.DataSources(c.UserContext(), c.Query("geo_type"))
	if errors.Is(err, ErrUnknownGeoType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Data source listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sources)
}
