package model

import (
	"errors"
	"regexp"
	"strings"
)

// JobStatus is the state of a form generation job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the job will not change state anymore.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// FormJob is a snapshot of a form generation job.
type FormJob struct {
	JobID    string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Progress float64   `json:"progress"`
	Reason   string    `json:"reason,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// GenerateRequest asks the form generator to build forms from a workbook.
type GenerateRequest struct {
	FileName string
	File     []byte
	Sheets   []string
	Preview  bool
}

// GeneratedForm is an artifact listed by the form generator.
type GeneratedForm struct {
	Name           string `json:"name"`
	HasTranslation bool   `json:"has_translation,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// FormArtifact is a downloaded form or translation document.
type FormArtifact struct {
	Name        string
	ContentType string
	Body        []byte
}

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobIDRequired   = errors.New("job id is required")
	ErrNoSheets        = errors.New("at least one sheet must be selected")
	ErrWorkbookMissing = errors.New("workbook file is required")
	ErrFormNameInvalid = errors.New("form name is invalid")
)

var formSheetPattern = regexp.MustCompile(`^F\d{2}`)

// FormSheets keeps the sheet names that hold form definitions, trimmed, in input order.
func FormSheets(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if formSheetPattern.MatchString(n) {
			out = append(out, n)
		}
	}
	return out
}
