package model

import (
	"errors"
	"strings"
	"time"
)

// Organization owns projects. Users belong to exactly one organization.
type Organization struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

const maxNameLength = 120

var (
	ErrOrganizationNotFound    = errors.New("organization not found")
	ErrOrganizationNameInvalid = errors.New("organization name must be 1-120 characters")
	ErrOrganizationExists      = errors.New("organization already exists")
)

// NewOrganization validates name and stamps timestamps. The id is assigned by the caller.
func NewOrganization(id, name, description, createdBy string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrOrganizationNameInvalid
	}
	return &Organization{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
