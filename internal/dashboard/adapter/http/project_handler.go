package http

import (
	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/domain/service"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler serves everything scoped to a single project: metadata
// blobs, the coverage report and the actions taken from it.
type ProjectHandler struct {
	metadata MetadataService
	reports  ReportService
	actions  ActionService
	log      logger.Logger
}

func NewProjectHandler(metadata MetadataService, reports ReportService, actions ActionService, log logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		metadata: metadata,
		reports:  reports,
		actions:  actions,
		log:      log.WithComponent("project_handler"),
	}
}

func (h *ProjectHandler) RegisterRoutes(router fiber.Router, middleware ...fiber.Handler) {
	p := router.Group("/projects", middleware...).Group("/:projectId")

	p.Get("/metadata", h.ListMetadata)
	p.Post("/metadata", h.CreateMetadata)
	p.Get("/metadata/:metadataId", h.GetMetadata)
	p.Patch("/metadata/:metadataId", h.PatchMetadata)

	p.Get("/report", h.GetReport)
	p.Get("/report/entities", h.GetEntitySummary)
	p.Post("/report/selection", h.SelectMissing)

	p.Post("/actions/add-to-source", h.AddToSource)
	p.Post("/actions/add-to-collection", h.AddToCollection)
	p.Post("/environments/:env/verify", h.RequestVerification)
}

// GET /projects/:projectId/metadata?type=
func (h *ProjectHandler) ListMetadata(c *fiber.Ctx) error {
	filter := repository.MetadataFilter{MetadataType: c.Query("type")}
	items, err := h.metadata.List(c.UserContext(), c.Params("projectId"), filter, listOptions(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"metadata": items, "count": len(items)})
}

// POST /projects/:projectId/metadata
func (h *ProjectHandler) CreateMetadata(c *fiber.Ctx) error {
	var req usecase.CreateMetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	m, err := h.metadata.Create(c.UserContext(), c.Params("projectId"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// GET /projects/:projectId/metadata/:metadataId
func (h *ProjectHandler) GetMetadata(c *fiber.Ctx) error {
	m, err := h.metadata.Get(c.UserContext(), c.Params("projectId"), c.Params("metadataId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(m)
}

// PATCH /projects/:projectId/metadata/:metadataId
func (h *ProjectHandler) PatchMetadata(c *fiber.Ctx) error {
	var patch model.MetadataPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	m, err := h.metadata.Patch(c.UserContext(), c.Params("projectId"), c.Params("metadataId"), patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(m)
}

// GET /projects/:projectId/report?tab=
func (h *ProjectHandler) GetReport(c *fiber.Ctx) error {
	tab, err := service.ParseTab(c.Query("tab"))
	if err != nil {
		return badRequest(c, "invalid_tab", err.Error())
	}
	report, err := h.reports.GetCoverageReport(c.UserContext(), c.Params("projectId"), tab)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(report)
}

// GET /projects/:projectId/report/entities
func (h *ProjectHandler) GetEntitySummary(c *fiber.Ctx) error {
	summary, err := h.reports.EntitySummary(c.UserContext(), c.Params("projectId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(summary)
}

// POST /projects/:projectId/report/selection
func (h *ProjectHandler) SelectMissing(c *fiber.Ctx) error {
	var req usecase.SelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	selection, err := h.reports.SelectMissing(c.UserContext(), c.Params("projectId"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(selection)
}

// POST /projects/:projectId/actions/add-to-source
func (h *ProjectHandler) AddToSource(c *fiber.Ctx) error {
	var req usecase.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	result, err := h.actions.AddToSource(c.UserContext(), c.Params("projectId"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// POST /projects/:projectId/actions/add-to-collection
func (h *ProjectHandler) AddToCollection(c *fiber.Ctx) error {
	var req usecase.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	result, err := h.actions.AddToCollection(c.UserContext(), c.Params("projectId"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// POST /projects/:projectId/environments/:env/verify
func (h *ProjectHandler) RequestVerification(c *fiber.Ctx) error {
	accepted, err := h.actions.RequestVerification(c.UserContext(), c.Params("projectId"), c.Params("env"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(accepted)
}
