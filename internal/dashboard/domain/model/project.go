package model

import (
	"errors"
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
	ProjectStatusDraft    ProjectStatus = "draft"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusDraft:
		return true
	}
	return false
}

// Project groups the metadata blobs (reports, templates) of one EMR rollout.
type Project struct {
	ID             string        `json:"id" bson:"_id"`
	Name           string        `json:"name" bson:"name"`
	Description    string        `json:"description,omitempty" bson:"description,omitempty"`
	OrganizationID string        `json:"organization_id" bson:"organization_id"`
	Status         ProjectStatus `json:"status" bson:"status"`
	CreatedBy      string        `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

// ProjectPatch carries the fields a PATCH may change. Nil means unchanged.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameInvalid   = errors.New("project name must be 1-120 characters")
	ErrProjectStatusInvalid = errors.New("project status must be one of active, archived, draft")
	ErrProjectOrgMismatch   = errors.New("project does not belong to organization")
	ErrEmptyPatch           = errors.New("patch does not change anything")
)

// NewProject builds a project in the given organization. An empty status defaults to active.
func NewProject(id, orgID, name, description string, status ProjectStatus, createdBy string, now time.Time) (*Project, error) {
	p := &Project{
		ID:             id,
		Name:           strings.TrimSpace(name),
		Description:    strings.TrimSpace(description),
		OrganizationID: orgID,
		Status:         status,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) Validate() error {
	if p.Name == "" || len(p.Name) > maxNameLength {
		return ErrProjectNameInvalid
	}
	if !p.Status.Valid() {
		return ErrProjectStatusInvalid
	}
	return nil
}

func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// Apply returns a copy of p with the patch applied and validated.
func (patch ProjectPatch) Apply(p Project, now time.Time) (Project, error) {
	if patch.Name == nil && patch.Description == nil && patch.Status == nil {
		return p, ErrEmptyPatch
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	p.UpdatedAt = now
	return p, nil
}
