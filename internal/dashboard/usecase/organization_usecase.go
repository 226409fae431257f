package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type OrganizationUsecase struct {
	orgs repository.OrganizationRepository
	log  logger.Logger
	now  func() time.Time
}

func NewOrganizationUsecase(orgs repository.OrganizationRepository, log logger.Logger) *OrganizationUsecase {
	return &OrganizationUsecase{orgs: orgs, log: log.WithComponent("organization_usecase"), now: time.Now}
}

// List returns every organization for admins and the caller's own otherwise.
func (uc *OrganizationUsecase) List(ctx context.Context, opts repository.ListOptions) ([]*model.Organization, error) {
	p, err := authorize(ctx, "", false)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleAdmin {
		if p.OrganizationID == "" {
			return []*model.Organization{}, nil
		}
		org, err := uc.Get(ctx, p.OrganizationID)
		if err != nil {
			if errors.IsNotFound(err) {
				return []*model.Organization{}, nil
			}
			return nil, err
		}
		return []*model.Organization{org}, nil
	}
	orgs, err := uc.orgs.List(ctx, opts)
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to list organizations").WithCause(err)
	}
	return orgs, nil
}

func (uc *OrganizationUsecase) Get(ctx context.Context, orgID string) (*model.Organization, error) {
	if _, err := authorize(ctx, orgID, false); err != nil {
		return nil, err
	}
	org, err := uc.orgs.Get(ctx, orgID)
	if err != nil {
		if stderrors.Is(err, model.ErrOrganizationNotFound) {
			return nil, errors.NewNotFoundError("organization").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load organization").WithCause(err)
	}
	return org, nil
}

// Create is restricted to admins.
func (uc *OrganizationUsecase) Create(ctx context.Context, req CreateOrganizationRequest) (*model.Organization, error) {
	p, err := authorize(ctx, "", true)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleAdmin {
		return nil, errors.NewAuthorizationError("only administrators can create organizations")
	}
	org, err := model.NewOrganization(uuid.NewString(), req.Name, req.Description, p.UserID, uc.now().UTC())
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	if err := uc.orgs.Create(ctx, org); err != nil {
		if stderrors.Is(err, model.ErrOrganizationExists) {
			return nil, errors.NewConflictError("organization already exists").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to create organization").WithCause(err)
	}
	uc.log.WithContext(ctx).Info("organization created", zap.String("organization_id", org.ID), zap.String("name", org.Name))
	return org, nil
}
