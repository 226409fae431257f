package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"emr-metadata-dashboard/internal/shared/logger"

	"go.uber.org/zap"
)

var errInvalidSampleJSON = errors.New("file is not valid JSON")

// SampleReportProvider serves the placeholder report shown before a project
// has any real report. A configured file wins; otherwise a built-in skeleton
// is returned.
type SampleReportProvider struct {
	path string
	log  logger.Logger
	now  func() time.Time
}

func NewSampleReportProvider(path string, log logger.Logger) *SampleReportProvider {
	return &SampleReportProvider{path: path, log: log.WithComponent("sample_report"), now: time.Now}
}

type sampleSummary struct {
	Found             int    `json:"found"`
	Total             int    `json:"total"`
	Missing           int    `json:"missing"`
	FoundPercentage   string `json:"foundPercentage"`
	MissingPercentage string `json:"missingPercentage"`
}

type sampleEnvironment struct {
	Stats struct {
		Summary sampleSummary `json:"summary"`
	} `json:"stats"`
	Display   string `json:"display"`
	Timestamp string `json:"timestamp"`
}

type sampleReport struct {
	Concepts         map[string]interface{}       `json:"concepts"`
	SyncedAt         string                       `json:"syncedAt"`
	ProjectID        string                       `json:"projectID"`
	Attributes       map[string]interface{}       `json:"attributes"`
	SourceFile       string                       `json:"sourceFile"`
	Environment      string                       `json:"environment"`
	Identifiers      map[string]interface{}       `json:"identifiers"`
	Environments     map[string]sampleEnvironment `json:"environments"`
	Stats            map[string]interface{}       `json:"stats"`
	FileDateModified string                       `json:"fileDateModified"`
}

// Load never fails; an unreadable file falls back to the built-in report.
func (p *SampleReportProvider) Load(ctx context.Context) json.RawMessage {
	if p.path != "" {
		raw, err := os.ReadFile(p.path)
		if err == nil && json.Valid(raw) {
			return raw
		}
		if err == nil {
			err = errInvalidSampleJSON
		}
		p.log.WithContext(ctx).Warn("sample report file unusable, serving built-in report", zap.String("path", p.path), zap.Error(err))
	}
	return p.builtin()
}

func (p *SampleReportProvider) builtin() json.RawMessage {
	ts := p.now().UTC().Format(time.RFC3339)
	env := sampleEnvironment{Display: "Sample Environment", Timestamp: ts}
	env.Stats.Summary = sampleSummary{FoundPercentage: "0% ✅", MissingPercentage: "0% ❌"}

	raw, _ := json.Marshal(sampleReport{
		Concepts:         map[string]interface{}{},
		SyncedAt:         ts,
		ProjectID:        "sample-project-id",
		Attributes:       map[string]interface{}{},
		SourceFile:       "sample-source-file.xlsx",
		Environment:      "sample-environment",
		Identifiers:      map[string]interface{}{},
		Environments:     map[string]sampleEnvironment{"sample-environment": env},
		Stats:            map[string]interface{}{},
		FileDateModified: ts,
	})
	return raw
}
