package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/eventbus"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateProjectRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      model.ProjectStatus `json:"status"`
}

type ProjectUsecase struct {
	orgs     repository.OrganizationRepository
	projects repository.ProjectRepository
	metadata repository.MetadataRepository
	bus      eventbus.Publisher
	log      logger.Logger
	now      func() time.Time
}

func NewProjectUsecase(
	orgs repository.OrganizationRepository,
	projects repository.ProjectRepository,
	metadata repository.MetadataRepository,
	bus eventbus.Publisher,
	log logger.Logger,
) *ProjectUsecase {
	return &ProjectUsecase{
		orgs:     orgs,
		projects: projects,
		metadata: metadata,
		bus:      bus,
		log:      log.WithComponent("project_usecase"),
		now:      time.Now,
	}
}

func (uc *ProjectUsecase) List(ctx context.Context, orgID string, opts repository.ListOptions) ([]*model.Project, error) {
	if _, err := authorize(ctx, orgID, false); err != nil {
		return nil, err
	}
	projects, err := uc.projects.ListByOrganization(ctx, orgID, opts)
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to list projects").WithCause(err)
	}
	return projects, nil
}

func (uc *ProjectUsecase) Get(ctx context.Context, orgID, projectID string) (*model.Project, error) {
	if _, err := authorize(ctx, orgID, false); err != nil {
		return nil, err
	}
	return uc.load(ctx, orgID, projectID)
}

// load fetches a project and hides projects of other organizations.
func (uc *ProjectUsecase) load(ctx context.Context, orgID, projectID string) (*model.Project, error) {
	p, err := uc.projects.Get(ctx, projectID)
	if err != nil {
		if stderrors.Is(err, model.ErrProjectNotFound) {
			return nil, errors.NewNotFoundError("project").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load project").WithCause(err)
	}
	if orgID != "" && p.OrganizationID != orgID {
		return nil, errors.NewNotFoundError("project").WithCause(model.ErrProjectOrgMismatch)
	}
	return p, nil
}

// Resolve loads a project by id alone and checks the caller may use it.
func (uc *ProjectUsecase) Resolve(ctx context.Context, projectID string, write bool) (*model.Project, error) {
	if _, err := authorize(ctx, "", write); err != nil {
		return nil, err
	}
	p, err := uc.load(ctx, "", projectID)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, p.OrganizationID, write); err != nil {
		// do not reveal projects of other organizations
		if errors.IsAuthorization(err) && !write {
			return nil, errors.NewNotFoundError("project")
		}
		return nil, err
	}
	return p, nil
}

func (uc *ProjectUsecase) Create(ctx context.Context, orgID string, req CreateProjectRequest) (*model.Project, error) {
	principal, err := authorize(ctx, orgID, true)
	if err != nil {
		return nil, err
	}
	if _, err := uc.orgs.Get(ctx, orgID); err != nil {
		if stderrors.Is(err, model.ErrOrganizationNotFound) {
			return nil, errors.NewNotFoundError("organization").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load organization").WithCause(err)
	}

	p, err := model.NewProject(uuid.NewString(), orgID, req.Name, req.Description, req.Status, principal.UserID, uc.now().UTC())
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	if err := uc.projects.Create(ctx, p); err != nil {
		return nil, errors.NewInfrastructureError("failed to create project").WithCause(err)
	}
	uc.log.WithContext(ctx).Info("project created",
		zap.String("project_id", p.ID),
		zap.String("organization_id", orgID),
		zap.String("status", string(p.Status)))
	return p, nil
}

func (uc *ProjectUsecase) Patch(ctx context.Context, orgID, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	if _, err := authorize(ctx, orgID, true); err != nil {
		return nil, err
	}
	current, err := uc.load(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	updated, err := patch.Apply(*current, uc.now().UTC())
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	if err := uc.projects.Update(ctx, &updated); err != nil {
		if stderrors.Is(err, model.ErrProjectNotFound) {
			return nil, errors.NewNotFoundError("project").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to update project").WithCause(err)
	}
	return &updated, nil
}

// Delete removes the project with its metadata and drops cached reports.
func (uc *ProjectUsecase) Delete(ctx context.Context, orgID, projectID string) error {
	if _, err := authorize(ctx, orgID, true); err != nil {
		return err
	}
	if _, err := uc.load(ctx, orgID, projectID); err != nil {
		return err
	}
	if err := uc.metadata.DeleteByProject(ctx, projectID); err != nil {
		return errors.NewInfrastructureError("failed to delete project metadata").WithCause(err)
	}
	if err := uc.projects.Delete(ctx, projectID); err != nil {
		if stderrors.Is(err, model.ErrProjectNotFound) {
			return errors.NewNotFoundError("project").WithCause(err)
		}
		return errors.NewInfrastructureError("failed to delete project").WithCause(err)
	}
	publishMetadataChanged(ctx, uc.bus, uc.log, projectID)
	uc.log.WithContext(ctx).Info("project deleted", zap.String("project_id", projectID))
	return nil
}

// publishMetadataChanged notifies subscribers (the report cache) synchronously.
func publishMetadataChanged(ctx context.Context, bus eventbus.Publisher, log logger.Logger, projectID string) {
	if bus == nil {
		return
	}
	event := eventbus.NewBasicEventWithSource(eventbus.EventTypeMetadataChanged, projectID, "dashboard")
	if err := bus.Publish(ctx, event); err != nil {
		log.WithContext(ctx).Warn("metadata change not propagated", zap.String("project_id", projectID), zap.Error(err))
	}
}
