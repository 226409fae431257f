package http

import (
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PublicHandler serves the unauthenticated /api paths the dashboard shell
// calls before a user signs in.
type PublicHandler struct {
	reports ReportService
	forms   FormGeneratorService
	log     logger.Logger
}

func NewPublicHandler(reports ReportService, forms FormGeneratorService, log logger.Logger) *PublicHandler {
	return &PublicHandler{
		reports: reports,
		forms:   forms,
		log:     log.WithComponent("public_handler"),
	}
}

func (h *PublicHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/sample-report", h.SampleReport)
	router.Get("/proxy/health", h.ProxyHealth)
}

// GET /api/sample-report
func (h *PublicHandler) SampleReport(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(h.reports.SampleReport(c.UserContext()))
}

// GET /api/proxy/health
func (h *PublicHandler) ProxyHealth(c *fiber.Ctx) error {
	doc, err := h.forms.Health(c.UserContext())
	if err != nil {
		h.log.Warn("upstream health check failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "upstream_error",
			"message": "Failed to connect to API",
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(doc)
}
