// Package http exposes the dashboard over Fiber.
package http

import (
	"context"
	"encoding/json"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/domain/service"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type OrganizationService interface {
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Organization, error)
	Get(ctx context.Context, orgID string) (*model.Organization, error)
	Create(ctx context.Context, req usecase.CreateOrganizationRequest) (*model.Organization, error)
}

type ProjectService interface {
	List(ctx context.Context, orgID string, opts repository.ListOptions) ([]*model.Project, error)
	Get(ctx context.Context, orgID, projectID string) (*model.Project, error)
	Create(ctx context.Context, orgID string, req usecase.CreateProjectRequest) (*model.Project, error)
	Patch(ctx context.Context, orgID, projectID string, patch model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, orgID, projectID string) error
}

type MetadataService interface {
	List(ctx context.Context, projectID string, filter repository.MetadataFilter, opts repository.ListOptions) ([]*model.Metadata, error)
	Get(ctx context.Context, projectID, metadataID string) (*model.Metadata, error)
	Create(ctx context.Context, projectID string, req usecase.CreateMetadataRequest) (*model.Metadata, error)
	Patch(ctx context.Context, projectID, metadataID string, patch model.MetadataPatch) (*model.Metadata, error)
}

type ReportService interface {
	GetCoverageReport(ctx context.Context, projectID string, tab service.Tab) (*usecase.CoverageReport, error)
	SelectMissing(ctx context.Context, projectID string, req usecase.SelectionRequest) (model.SelectionDTO, error)
	EntitySummary(ctx context.Context, projectID string) (*model.EntitySummary, error)
	SampleReport(ctx context.Context) json.RawMessage
}

type ActionService interface {
	AddToSource(ctx context.Context, projectID string, req usecase.ActionRequest) (*repository.SubmissionResult, error)
	AddToCollection(ctx context.Context, projectID string, req usecase.ActionRequest) (*repository.SubmissionResult, error)
	RequestVerification(ctx context.Context, projectID, environment string) (*usecase.VerificationAccepted, error)
}

type FormGeneratorService interface {
	Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error)
	Generate(ctx context.Context, req model.GenerateRequest) (string, error)
	Status(ctx context.Context, jobID string) (*model.FormJob, error)
	WaitForJob(ctx context.Context, jobID string, onUpdate func(*model.FormJob)) (*model.FormJob, error)
	Forms(ctx context.Context) ([]model.GeneratedForm, error)
	Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error)
	Health(ctx context.Context) (json.RawMessage, error)
}

// respondError writes err as {"error": code, "message": text}. Server side
// failures are logged and their message is not echoed back.
func respondError(c *fiber.Ctx, log logger.Logger, err error) error {
	status, body := errorBody(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// errorBody maps err to a status and the payload a client may see. Causes
// never leave the process, and 5xx messages other than 502 are replaced.
func errorBody(err error) (int, ErrorResponse) {
	status, code := errors.HTTPStatus(err)
	message := errors.PublicMessage(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		message = "Internal server error"
	}
	return status, ErrorResponse{Error: code, Message: message}
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func listOptions(c *fiber.Ctx) repository.ListOptions {
	limit := c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
}
