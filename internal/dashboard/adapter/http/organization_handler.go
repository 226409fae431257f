package http

import (
	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// OrganizationHandler serves organizations and the projects nested under them.
type OrganizationHandler struct {
	orgs     OrganizationService
	projects ProjectService
	log      logger.Logger
}

func NewOrganizationHandler(orgs OrganizationService, projects ProjectService, log logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgs:     orgs,
		projects: projects,
		log:      log.WithComponent("organization_handler"),
	}
}

func (h *OrganizationHandler) RegisterRoutes(router fiber.Router, middleware ...fiber.Handler) {
	orgs := router.Group("/organizations", middleware...)
	orgs.Get("/", h.ListOrganizations)
	orgs.Post("/", h.CreateOrganization)
	orgs.Get("/:orgId", h.GetOrganization)

	projects := orgs.Group("/:orgId/projects")
	projects.Get("/", h.ListProjects)
	projects.Post("/", h.CreateProject)
	projects.Get("/:projectId", h.GetProject)
	projects.Patch("/:projectId", h.PatchProject)
	projects.Delete("/:projectId", h.DeleteProject)
}

// GET /organizations
func (h *OrganizationHandler) ListOrganizations(c *fiber.Ctx) error {
	orgs, err := h.orgs.List(c.UserContext(), listOptions(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"organizations": orgs, "count": len(orgs)})
}

// POST /organizations
func (h *OrganizationHandler) CreateOrganization(c *fiber.Ctx) error {
	var req usecase.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	org, err := h.orgs.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

// GET /organizations/:orgId
func (h *OrganizationHandler) GetOrganization(c *fiber.Ctx) error {
	org, err := h.orgs.Get(c.UserContext(), c.Params("orgId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(org)
}

// GET /organizations/:orgId/projects
func (h *OrganizationHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.UserContext(), c.Params("orgId"), listOptions(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"projects": projects, "count": len(projects)})
}

// POST /organizations/:orgId/projects
func (h *OrganizationHandler) CreateProject(c *fiber.Ctx) error {
	var req usecase.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	project, err := h.projects.Create(c.UserContext(), c.Params("orgId"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GET /organizations/:orgId/projects/:projectId
func (h *OrganizationHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.UserContext(), c.Params("orgId"), c.Params("projectId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(project)
}

// PATCH /organizations/:orgId/projects/:projectId
func (h *OrganizationHandler) PatchProject(c *fiber.Ctx) error {
	var patch model.ProjectPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid_request_body", "Failed to parse request body")
	}
	project, err := h.projects.Patch(c.UserContext(), c.Params("orgId"), c.Params("projectId"), patch)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(project)
}

// DELETE /organizations/:orgId/projects/:projectId
func (h *OrganizationHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.UserContext(), c.Params("orgId"), c.Params("projectId")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
