package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ProjectUsecaseTestSuite struct {
	suite.Suite
	orgs     *mockOrgRepo
	projects *mockProjectRepo
	metadata *mockMetadataRepo
	bus      *mockPublisher
	orgUC    *usecase.OrganizationUsecase
	uc       *usecase.ProjectUsecase
	mdUC     *usecase.MetadataUsecase
}

func (s *ProjectUsecaseTestSuite) SetupTest() {
	s.orgs = new(mockOrgRepo)
	s.projects = new(mockProjectRepo)
	s.metadata = new(mockMetadataRepo)
	s.bus = new(mockPublisher)
	log := testLogger()
	s.orgUC = usecase.NewOrganizationUsecase(s.orgs, log)
	s.uc = usecase.NewProjectUsecase(s.orgs, s.projects, s.metadata, s.bus, log)
	s.mdUC = usecase.NewMetadataUsecase(s.uc, s.metadata, s.bus, log)
}

func (s *ProjectUsecaseTestSuite) TearDownTest() {
	s.orgs.AssertExpectations(s.T())
	s.projects.AssertExpectations(s.T())
	s.metadata.AssertExpectations(s.T())
	s.bus.AssertExpectations(s.T())
}

func TestProjectUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectUsecaseTestSuite))
}

func project(id, orgID string) *model.Project {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return &model.Project{ID: id, OrganizationID: orgID, Name: "Pilot", Status: model.ProjectStatusActive, CreatedAt: now, UpdatedAt: now}
}

func (s *ProjectUsecaseTestSuite) TestCreateOrganization_AdminOnly() {
	_, err := s.orgUC.Create(asCaller("u1", "org-1", usecase.RoleUser), usecase.CreateOrganizationRequest{Name: "MoH"})
	s.True(errors.IsAuthorization(err))

	s.orgs.On("Create", mock.Anything, mock.AnythingOfType("*model.Organization")).Return(nil).Once()
	org, err := s.orgUC.Create(asCaller("admin", "", usecase.RoleAdmin), usecase.CreateOrganizationRequest{Name: " MoH "})
	s.Require().NoError(err)
	s.Equal("MoH", org.Name)
	s.Equal("admin", org.CreatedBy)
	s.NotEmpty(org.ID)
}

func (s *ProjectUsecaseTestSuite) TestListOrganizations_NonAdminSeesOwn() {
	own := &model.Organization{ID: "org-1", Name: "MoH"}
	s.orgs.On("Get", mock.Anything, "org-1").Return(own, nil).Once()

	orgs, err := s.orgUC.List(asCaller("u1", "org-1", usecase.RoleViewer), repository.ListOptions{})
	s.Require().NoError(err)
	s.Equal([]*model.Organization{own}, orgs)
}

func (s *ProjectUsecaseTestSuite) TestGetOrganization_OtherOrgForbidden() {
	_, err := s.orgUC.Get(asCaller("u1", "org-1", usecase.RoleUser), "org-2")
	s.True(errors.IsAuthorization(err))
}

func (s *ProjectUsecaseTestSuite) TestCreateProject() {
	ctx := asCaller("u1", "org-1", usecase.RoleUser)
	s.orgs.On("Get", mock.Anything, "org-1").Return(&model.Organization{ID: "org-1"}, nil).Once()
	s.projects.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.OrganizationID == "org-1" && p.Status == model.ProjectStatusActive
	})).Return(nil).Once()

	p, err := s.uc.Create(ctx, "org-1", usecase.CreateProjectRequest{Name: "Pilot"})
	s.Require().NoError(err)
	s.Equal("u1", p.CreatedBy)
}

func (s *ProjectUsecaseTestSuite) TestCreateProject_ViewerForbidden() {
	_, err := s.uc.Create(asCaller("u1", "org-1", usecase.RoleViewer), "org-1", usecase.CreateProjectRequest{Name: "Pilot"})
	s.True(errors.IsAuthorization(err))
}

func (s *ProjectUsecaseTestSuite) TestCreateProject_UnknownOrganization() {
	s.orgs.On("Get", mock.Anything, "org-1").Return(nil, model.ErrOrganizationNotFound).Once()
	_, err := s.uc.Create(asCaller("admin", "", usecase.RoleAdmin), "org-1", usecase.CreateProjectRequest{Name: "Pilot"})
	s.True(errors.IsNotFound(err))
}

func (s *ProjectUsecaseTestSuite) TestResolve_HidesOtherOrganizations() {
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-2"), nil)

	_, err := s.uc.Resolve(asCaller("u1", "org-1", usecase.RoleUser), "p1", false)
	s.True(errors.IsNotFound(err))

	_, err = s.uc.Resolve(asCaller("u1", "org-1", usecase.RoleUser), "p1", true)
	s.True(errors.IsAuthorization(err))

	p, err := s.uc.Resolve(asCaller("admin", "", usecase.RoleAdmin), "p1", true)
	s.Require().NoError(err)
	s.Equal("p1", p.ID)
}

func (s *ProjectUsecaseTestSuite) TestResolve_Anonymous() {
	_, err := s.uc.Resolve(asCaller("", "", ""), "p1", false)
	s.True(errors.IsAuthentication(err))
}

func (s *ProjectUsecaseTestSuite) TestGetProject_WrongOrganizationPath() {
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-2"), nil).Once()
	_, err := s.uc.Get(asCaller("admin", "", usecase.RoleAdmin), "org-1", "p1")
	s.True(errors.IsNotFound(err))
}

func (s *ProjectUsecaseTestSuite) TestPatchProject() {
	archived := model.ProjectStatusArchived
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-1"), nil).Once()
	s.projects.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.Status == model.ProjectStatusArchived
	})).Return(nil).Once()

	p, err := s.uc.Patch(asCaller("u1", "org-1", usecase.RoleUser), "org-1", "p1", model.ProjectPatch{Status: &archived})
	s.Require().NoError(err)
	s.False(p.IsActive())
}

func (s *ProjectUsecaseTestSuite) TestDeleteProject_PublishesChange() {
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-1"), nil).Once()
	s.metadata.On("DeleteByProject", mock.Anything, "p1").Return(nil).Once()
	s.projects.On("Delete", mock.Anything, "p1").Return(nil).Once()
	s.bus.On("Publish", mock.Anything, mock.MatchedBy(func(e eventbus.Event) bool {
		return e.Type() == eventbus.EventTypeMetadataChanged && e.Data() == "p1"
	})).Return(nil).Once()

	s.Require().NoError(s.uc.Delete(asCaller("u1", "org-1", usecase.RoleUser), "org-1", "p1"))
}

func (s *ProjectUsecaseTestSuite) TestCreateMetadata() {
	ctx := asCaller("u1", "org-1", usecase.RoleUser)
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-1"), nil)
	s.metadata.On("Create", mock.Anything, mock.AnythingOfType("*model.Metadata")).Return(nil).Once()
	s.bus.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	m, err := s.mdUC.Create(ctx, "p1", usecase.CreateMetadataRequest{
		MetadataType: model.MetadataTypeReport,
		Content:      json.RawMessage(`{"mergedReport":[]}`),
	})
	s.Require().NoError(err)
	s.Equal("p1", m.ProjectID)
	s.Equal("u1", m.CreatedBy)

	_, err = s.mdUC.Create(ctx, "p1", usecase.CreateMetadataRequest{MetadataType: model.MetadataTypeReport, Content: json.RawMessage(`[1,2]`)})
	s.True(errors.IsValidation(err))
}

func (s *ProjectUsecaseTestSuite) TestGetMetadata_NotFound() {
	s.projects.On("Get", mock.Anything, "p1").Return(project("p1", "org-1"), nil).Once()
	s.metadata.On("Get", mock.Anything, "p1", "m9").Return(nil, model.ErrMetadataNotFound).Once()

	_, err := s.mdUC.Get(asCaller("u1", "org-1", usecase.RoleViewer), "p1", "m9")
	s.True(errors.IsNotFound(err))
}

func TestCanWrite(t *testing.T) {
	assert.True(t, usecase.CanWrite(usecase.RoleAdmin))
	assert.True(t, usecase.CanWrite(usecase.RoleUser))
	assert.False(t, usecase.CanWrite(usecase.RoleViewer))
	require.False(t, usecase.CanWrite(""))
}
