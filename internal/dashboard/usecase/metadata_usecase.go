package usecase

import (
	"context"
	"encoding/json"
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

type CreateMetadataRequest struct {
	MetadataType string          `json:"metadata_type"`
	Content      json.RawMessage `json:"content"`
}

type MetadataUsecase struct {
	projects *ProjectUsecase
	metadata repository.MetadataRepository
	bus      eventbus.Publisher
	log      logger.Logger
	now      func() time.Time
}

func NewMetadataUsecase(projects *ProjectUsecase, metadata repository.MetadataRepository, bus eventbus.Publisher, log logger.Logger) *MetadataUsecase {
	return &MetadataUsecase{
		projects: projects,
		metadata: metadata,
		bus:      bus,
		log:      log.WithComponent("metadata_usecase"),
		now:      time.Now,
	}
}

func (uc *MetadataUsecase) List(ctx context.Context, projectID string, filter repository.MetadataFilter, opts repository.ListOptions) ([]*model.Metadata, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, false); err != nil {
		return nil, err
	}
	items, err := uc.metadata.List(ctx, projectID, filter, opts)
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to list metadata").WithCause(err)
	}
	return items, nil
}

func (uc *MetadataUsecase) Get(ctx context.Context, projectID, metadataID string) (*model.Metadata, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, false); err != nil {
		return nil, err
	}
	return uc.load(ctx, projectID, metadataID)
}

func (uc *MetadataUsecase) load(ctx context.Context, projectID, metadataID string) (*model.Metadata, error) {
	m, err := uc.metadata.Get(ctx, projectID, metadataID)
	if err != nil {
		if stderrors.Is(err, model.ErrMetadataNotFound) {
			return nil, errors.NewNotFoundError("metadata").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load metadata").WithCause(err)
	}
	return m, nil
}

func (uc *MetadataUsecase) Create(ctx context.Context, projectID string, req CreateMetadataRequest) (*model.Metadata, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, true); err != nil {
		return nil, err
	}
	principal, _ := principalOf(ctx)
	m, err := model.NewMetadata(uuid.NewString(), projectID, req.MetadataType, req.Content, principal, uc.now().UTC())
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	if err := uc.metadata.Create(ctx, m); err != nil {
		return nil, errors.NewInfrastructureError("failed to store metadata").WithCause(err)
	}
	publishMetadataChanged(ctx, uc.bus, uc.log, projectID)
	uc.log.WithContext(ctx).Info("metadata stored",
		zap.String("project_id", projectID),
		zap.String("metadata_id", m.ID),
		zap.String("metadata_type", m.MetadataType),
		zap.Int("bytes", len(m.Content)))
	return m, nil
}

func (uc *MetadataUsecase) Patch(ctx context.Context, projectID, metadataID string, patch model.MetadataPatch) (*model.Metadata, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, true); err != nil {
		return nil, err
	}
	current, err := uc.load(ctx, projectID, metadataID)
	if err != nil {
		return nil, err
	}
	updated, err := patch.Apply(*current, uc.now().UTC())
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	if err := uc.metadata.Update(ctx, &updated); err != nil {
		if stderrors.Is(err, model.ErrMetadataNotFound) {
			return nil, errors.NewNotFoundError("metadata").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to update metadata").WithCause(err)
	}
	publishMetadataChanged(ctx, uc.bus, uc.log, projectID)
	return &updated, nil
}
