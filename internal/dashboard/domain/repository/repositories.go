package repository

import (
	"context"
	"encoding/json"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
)

// ListOptions pages through a collection.
type ListOptions struct {
	Limit  int64
	Offset int64
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	Get(ctx context.Context, id string) (*model.Organization, error)
	List(ctx context.Context, opts ListOptions) ([]*model.Organization, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	ListByOrganization(ctx context.Context, orgID string, opts ListOptions) ([]*model.Project, error)
	ListActive(ctx context.Context) ([]*model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

// MetadataFilter narrows a metadata listing. Empty fields match everything.
type MetadataFilter struct {
	MetadataType string
}

type MetadataRepository interface {
	Create(ctx context.Context, m *model.Metadata) error
	Get(ctx context.Context, projectID, id string) (*model.Metadata, error)
	List(ctx context.Context, projectID string, filter MetadataFilter, opts ListOptions) ([]*model.Metadata, error)
	// Latest returns the most recently updated blob of the given type.
	Latest(ctx context.Context, projectID, metadataType string) (*model.Metadata, error)
	Update(ctx context.Context, m *model.Metadata) error
	DeleteByProject(ctx context.Context, projectID string) error
}

// ReportCache stores computed coverage reports.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateProject(ctx context.Context, projectID string) error
}

// FormGenerator is the external form generation API.
type FormGenerator interface {
	Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error)
	Generate(ctx context.Context, req model.GenerateRequest) (string, error)
	Status(ctx context.Context, jobID string) (*model.FormJob, error)
	Forms(ctx context.Context) ([]model.GeneratedForm, error)
	Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error)
	// Health returns the upstream health document.
	Health(ctx context.Context) (json.RawMessage, error)
}

// VerificationRequest asks the sync pipeline to re-check an environment.
type VerificationRequest struct {
	ProjectID   string    `json:"project_id"`
	Environment string    `json:"environment"`
	RequestedBy string    `json:"requested_by"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}

type VerificationWebhook interface {
	Trigger(ctx context.Context, req VerificationRequest) error
}

// TerminologyTarget is where add-to-source and add-to-collection land.
type TerminologyTarget string

const (
	TargetSource     TerminologyTarget = "source"
	TargetCollection TerminologyTarget = "collection"
)

// TerminologySubmission carries selected ids to the terminology service.
type TerminologySubmission struct {
	ProjectID   string   `json:"project_id"`
	Environment string   `json:"environment,omitempty"`
	Questions   []string `json:"questions"`
	Answers     []string `json:"answers"`
	SubmittedBy string   `json:"submitted_by"`
}

// SubmissionResult is the terminology service's acknowledgement.
type SubmissionResult struct {
	Target   TerminologyTarget `json:"target"`
	Accepted int               `json:"accepted"`
	Message  string            `json:"message,omitempty"`
}

type TerminologyService interface {
	Submit(ctx context.Context, target TerminologyTarget, sub TerminologySubmission) (*SubmissionResult, error)
}
