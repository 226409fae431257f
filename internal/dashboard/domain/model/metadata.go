package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Well known metadata types. Any other non-empty type is stored as is.
const (
	// MetadataTypeReport holds a combined multi-environment coverage report.
	MetadataTypeReport = "report"
	// MetadataTypeEnvironmentReport holds a single environment's entity report.
	MetadataTypeEnvironmentReport = "environment_report"
	MetadataTypeFormTemplate      = "form_template"
)

// Metadata is an opaque JSON document attached to a project.
type Metadata struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	MetadataType string          `json:"metadata_type"`
	Content      json.RawMessage `json:"content"`
	CreatedBy    string          `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MetadataPatch replaces the content and optionally the type.
type MetadataPatch struct {
	MetadataType *string         `json:"metadata_type,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
}

var (
	ErrMetadataNotFound    = errors.New("metadata not found")
	ErrMetadataTypeInvalid = errors.New("metadata_type is required")
	ErrMetadataContent     = errors.New("content must be a JSON object")
)

func NewMetadata(id, projectID, metadataType string, content json.RawMessage, createdBy string, now time.Time) (*Metadata, error) {
	m := &Metadata{
		ID:           id,
		ProjectID:    projectID,
		MetadataType: strings.TrimSpace(metadataType),
		Content:      content,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) Validate() error {
	if m.MetadataType == "" {
		return ErrMetadataTypeInvalid
	}
	if !isJSONObject(m.Content) {
		return ErrMetadataContent
	}
	return nil
}

func (patch MetadataPatch) Apply(m Metadata, now time.Time) (Metadata, error) {
	if patch.MetadataType == nil && len(patch.Content) == 0 {
		return m, ErrEmptyPatch
	}
	if patch.MetadataType != nil {
		m.MetadataType = strings.TrimSpace(*patch.MetadataType)
	}
	if len(patch.Content) > 0 {
		m.Content = patch.Content
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	m.UpdatedAt = now
	return m, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
