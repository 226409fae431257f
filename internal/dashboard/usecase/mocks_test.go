package usecase_test

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/eventbus"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/utils"

	"github.com/stretchr/testify/mock"
)

func testLogger() logger.Logger {
	return logger.NewLoggerWithWriter(io.Discard, "error", "json")
}

func asCaller(userID, orgID, role string) context.Context {
	return utils.WithPrincipal(context.Background(), utils.Principal{
		UserID:         userID,
		Email:          userID + "@example.org",
		Role:           role,
		OrganizationID: orgID,
	})
}

type mockOrgRepo struct{ mock.Mock }

func (m *mockOrgRepo) Create(ctx context.Context, org *model.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrgRepo) Get(ctx context.Context, id string) (*model.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *mockOrgRepo) List(ctx context.Context, opts repository.ListOptions) ([]*model.Organization, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Organization), args.Error(1)
}

type mockProjectRepo struct{ mock.Mock }

func (m *mockProjectRepo) Create(ctx context.Context, p *model.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectRepo) Get(ctx context.Context, id string) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjectRepo) ListByOrganization(ctx context.Context, orgID string, opts repository.ListOptions) ([]*model.Project, error) {
	args := m.Called(ctx, orgID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *mockProjectRepo) ListActive(ctx context.Context) ([]*model.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *mockProjectRepo) Update(ctx context.Context, p *model.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockMetadataRepo struct{ mock.Mock }

func (m *mockMetadataRepo) Create(ctx context.Context, md *model.Metadata) error {
	return m.Called(ctx, md).Error(0)
}

func (m *mockMetadataRepo) Get(ctx context.Context, projectID, id string) (*model.Metadata, error) {
	args := m.Called(ctx, projectID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Metadata), args.Error(1)
}

func (m *mockMetadataRepo) List(ctx context.Context, projectID string, filter repository.MetadataFilter, opts repository.ListOptions) ([]*model.Metadata, error) {
	args := m.Called(ctx, projectID, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Metadata), args.Error(1)
}

func (m *mockMetadataRepo) Latest(ctx context.Context, projectID, metadataType string) (*model.Metadata, error) {
	args := m.Called(ctx, projectID, metadataType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Metadata), args.Error(1)
}

func (m *mockMetadataRepo) Update(ctx context.Context, md *model.Metadata) error {
	return m.Called(ctx, md).Error(0)
}

func (m *mockMetadataRepo) DeleteByProject(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) InvalidateProject(ctx context.Context, projectID string) error {
	return m.Called(ctx, projectID).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event eventbus.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishAndForget(ctx context.Context, event eventbus.Event) {
	m.Called(ctx, event)
}

type mockFormGenerator struct{ mock.Mock }

func (m *mockFormGenerator) Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error) {
	args := m.Called(ctx, fileName, workbook)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockFormGenerator) Generate(ctx context.Context, req model.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockFormGenerator) Status(ctx context.Context, jobID string) (*model.FormJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormJob), args.Error(1)
}

func (m *mockFormGenerator) Forms(ctx context.Context) ([]model.GeneratedForm, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeneratedForm), args.Error(1)
}

func (m *mockFormGenerator) Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error) {
	args := m.Called(ctx, name, translation, download)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormArtifact), args.Error(1)
}

func (m *mockFormGenerator) Health(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockWebhook struct{ mock.Mock }

func (m *mockWebhook) Trigger(ctx context.Context, req repository.VerificationRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockTerminology struct{ mock.Mock }

func (m *mockTerminology) Submit(ctx context.Context, target repository.TerminologyTarget, sub repository.TerminologySubmission) (*repository.SubmissionResult, error) {
	args := m.Called(ctx, target, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SubmissionResult), args.Error(1)
}
