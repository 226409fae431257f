package http

import (
	"context"
	"encoding/json"
	"io"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/domain/service"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/stretchr/testify/mock"
)

func testLogger() logger.Logger {
	return logger.NewLoggerWithWriter(io.Discard, "error", "json")
}

type mockProjects struct{ mock.Mock }

func (m *mockProjects) List(ctx context.Context, orgID string, opts repository.ListOptions) ([]*model.Project, error) {
	args := m.Called(ctx, orgID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Project), args.Error(1)
}

func (m *mockProjects) Get(ctx context.Context, orgID, projectID string) (*model.Project, error) {
	args := m.Called(ctx, orgID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjects) Create(ctx context.Context, orgID string, req usecase.CreateProjectRequest) (*model.Project, error) {
	args := m.Called(ctx, orgID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjects) Patch(ctx context.Context, orgID, projectID string, patch model.ProjectPatch) (*model.Project, error) {
	args := m.Called(ctx, orgID, projectID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjects) Delete(ctx context.Context, orgID, projectID string) error {
	return m.Called(ctx, orgID, projectID).Error(0)
}

type mockReports struct{ mock.Mock }

func (m *mockReports) GetCoverageReport(ctx context.Context, projectID string, tab service.Tab) (*usecase.CoverageReport, error) {
	args := m.Called(ctx, projectID, tab)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CoverageReport), args.Error(1)
}

func (m *mockReports) SelectMissing(ctx context.Context, projectID string, req usecase.SelectionRequest) (model.SelectionDTO, error) {
	args := m.Called(ctx, projectID, req)
	return args.Get(0).(model.SelectionDTO), args.Error(1)
}

func (m *mockReports) EntitySummary(ctx context.Context, projectID string) (*model.EntitySummary, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EntitySummary), args.Error(1)
}

func (m *mockReports) SampleReport(ctx context.Context) json.RawMessage {
	return m.Called(ctx).Get(0).(json.RawMessage)
}

type mockActions struct{ mock.Mock }

func (m *mockActions) AddToSource(ctx context.Context, projectID string, req usecase.ActionRequest) (*repository.SubmissionResult, error) {
	args := m.Called(ctx, projectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SubmissionResult), args.Error(1)
}

func (m *mockActions) AddToCollection(ctx context.Context, projectID string, req usecase.ActionRequest) (*repository.SubmissionResult, error) {
	args := m.Called(ctx, projectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SubmissionResult), args.Error(1)
}

func (m *mockActions) RequestVerification(ctx context.Context, projectID, environment string) (*usecase.VerificationAccepted, error) {
	args := m.Called(ctx, projectID, environment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.VerificationAccepted), args.Error(1)
}

type mockForms struct{ mock.Mock }

func (m *mockForms) Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error) {
	args := m.Called(ctx, fileName, workbook)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockForms) Generate(ctx context.Context, req model.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockForms) Status(ctx context.Context, jobID string) (*model.FormJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormJob), args.Error(1)
}

func (m *mockForms) WaitForJob(ctx context.Context, jobID string, onUpdate func(*model.FormJob)) (*model.FormJob, error) {
	args := m.Called(ctx, jobID, onUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormJob), args.Error(1)
}

func (m *mockForms) Forms(ctx context.Context) ([]model.GeneratedForm, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GeneratedForm), args.Error(1)
}

func (m *mockForms) Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error) {
	args := m.Called(ctx, name, translation, download)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FormArtifact), args.Error(1)
}

func (m *mockForms) Health(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
