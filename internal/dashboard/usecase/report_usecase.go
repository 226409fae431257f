package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/domain/service"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/eventbus"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"

	"go.uber.org/zap"
)

// Report sources.
const (
	SourceMetadata = "metadata"
	SourceSample   = "sample"
)

// CoverageReport is the payload of the report page.
type CoverageReport struct {
	ProjectID          string                              `json:"project_id"`
	Tab                service.Tab                         `json:"tab"`
	Source             string                              `json:"source"`
	MetadataID         string                              `json:"metadata_id,omitempty"`
	ReportUpdatedAt    *time.Time                          `json:"report_updated_at,omitempty"`
	Environments       []string                            `json:"environments"`
	Forms              []model.FormCoverage                `json:"forms"`
	EnvironmentStats   map[string]model.EnvironmentSummary `json:"environment_stats"`
	MergedMeta         map[string]string                   `json:"merged_meta"`
	MissingExternalIDs map[string][]string                 `json:"missing_external_ids"`
	Thresholds         service.ThresholdPolicy             `json:"thresholds"`
	Sample             json.RawMessage                     `json:"sample,omitempty"`
	GeneratedAt        time.Time                           `json:"generated_at"`
}

// SelectionRequest asks for the missing items of one form in one environment.
type SelectionRequest struct {
	FormName    string             `json:"form_name"`
	Environment string             `json:"environment"`
	Current     model.SelectionDTO `json:"current"`
}

type ReportUsecase struct {
	projects   *ProjectUsecase
	metadata   repository.MetadataRepository
	cache      repository.ReportCache
	cacheTTL   time.Duration
	aggregator *service.CoverageAggregator
	tabs       *service.TabClassifier
	sample     *SampleReportProvider
	metrics    *metrics.Metrics
	log        logger.Logger
	now        func() time.Time
}

type ReportUsecaseDeps struct {
	Projects   *ProjectUsecase
	Metadata   repository.MetadataRepository
	Cache      repository.ReportCache
	CacheTTL   time.Duration
	Aggregator *service.CoverageAggregator
	Tabs       *service.TabClassifier
	Sample     *SampleReportProvider
	Metrics    *metrics.Metrics
	Log        logger.Logger
}

func NewReportUsecase(d ReportUsecaseDeps) *ReportUsecase {
	return &ReportUsecase{
		projects:   d.Projects,
		metadata:   d.Metadata,
		cache:      d.Cache,
		cacheTTL:   d.CacheTTL,
		aggregator: d.Aggregator,
		tabs:       d.Tabs,
		sample:     d.Sample,
		metrics:    d.Metrics,
		log:        d.Log.WithComponent("report_usecase"),
		now:        time.Now,
	}
}

// latestReport returns nil without error when the project has no report yet.
func (uc *ReportUsecase) latestReport(ctx context.Context, projectID string) (*model.Metadata, error) {
	m, err := uc.metadata.Latest(ctx, projectID, model.MetadataTypeReport)
	if err != nil {
		if stderrors.Is(err, model.ErrMetadataNotFound) {
			return nil, nil
		}
		return nil, errors.NewInfrastructureError("failed to load report").WithCause(err)
	}
	return m, nil
}

// GetCoverageReport aggregates the latest report of a project for one tab.
func (uc *ReportUsecase) GetCoverageReport(ctx context.Context, projectID string, tab service.Tab) (*CoverageReport, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, false); err != nil {
		return nil, err
	}
	log := uc.log.WithContext(ctx)

	latest, err := uc.latestReport(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		log.Debug("no report stored, serving sample", zap.String("project_id", projectID))
		return uc.sampleReport(ctx, projectID, tab), nil
	}

	key := reportCacheKey(projectID, tab, latest)
	if cached, ok := uc.fromCache(ctx, key); ok {
		return cached, nil
	}

	start := uc.now()
	parsed := service.ParseCombinedReport(latest.Content)
	envs, err := uc.tabs.Filter(tab, service.Environments(parsed))
	if err != nil {
		return nil, errors.NewInternalError("failed to classify environments").WithCause(err)
	}

	updatedAt := latest.UpdatedAt
	out := &CoverageReport{
		ProjectID:          projectID,
		Tab:                tab,
		Source:             SourceMetadata,
		MetadataID:         latest.ID,
		ReportUpdatedAt:    &updatedAt,
		Environments:       envs,
		Forms:              uc.aggregator.Coverage(parsed.MergedReport, envs),
		EnvironmentStats:   uc.aggregator.Summaries(parsed.MergedReport, envs),
		MergedMeta:         make(map[string]string, len(envs)),
		MissingExternalIDs: make(map[string][]string, len(envs)),
		Thresholds:         uc.aggregator.Policy(),
		GeneratedAt:        uc.now().UTC(),
	}
	for _, env := range envs {
		if ts, ok := parsed.MergedMeta[env]; ok {
			out.MergedMeta[env] = ts
		}
		if ids, ok := parsed.MissingExternalIDs[env]; ok {
			out.MissingExternalIDs[env] = ids
		}
	}
	uc.metrics.ObserveReport(string(tab), start)
	log.Debug("coverage report computed",
		zap.String("project_id", projectID),
		zap.String("tab", string(tab)),
		zap.Int("forms", len(out.Forms)),
		zap.Int("environments", len(envs)))

	uc.toCache(ctx, key, out)
	return out, nil
}

func (uc *ReportUsecase) sampleReport(ctx context.Context, projectID string, tab service.Tab) *CoverageReport {
	return &CoverageReport{
		ProjectID:          projectID,
		Tab:                tab,
		Source:             SourceSample,
		Environments:       []string{},
		Forms:              []model.FormCoverage{},
		EnvironmentStats:   map[string]model.EnvironmentSummary{},
		MergedMeta:         map[string]string{},
		MissingExternalIDs: map[string][]string{},
		Thresholds:         uc.aggregator.Policy(),
		Sample:             uc.sample.Load(ctx),
		GeneratedAt:        uc.now().UTC(),
	}
}

// SampleReport exposes the placeholder report on its own.
func (uc *ReportUsecase) SampleReport(ctx context.Context) json.RawMessage {
	return uc.sample.Load(ctx)
}

func reportCacheKey(projectID string, tab service.Tab, m *model.Metadata) string {
	return fmt.Sprintf("report:%s:%s:%s:%d", projectID, tab, m.ID, m.UpdatedAt.UnixNano())
}

func (uc *ReportUsecase) fromCache(ctx context.Context, key string) (*CoverageReport, bool) {
	if uc.cache == nil {
		return nil, false
	}
	raw, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.WithContext(ctx).Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if ok {
		var cached CoverageReport
		if err := json.Unmarshal(raw, &cached); err == nil {
			uc.metrics.CacheResult(true)
			return &cached, true
		}
	}
	uc.metrics.CacheResult(false)
	return nil, false
}

func (uc *ReportUsecase) toCache(ctx context.Context, key string, r *CoverageReport) {
	if uc.cache == nil || uc.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.cacheTTL); err != nil {
		uc.log.WithContext(ctx).Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// SelectMissing unions the current selection with the items missing in an environment.
func (uc *ReportUsecase) SelectMissing(ctx context.Context, projectID string, req SelectionRequest) (model.SelectionDTO, error) {
	if req.Environment == "" {
		return model.SelectionDTO{}, errors.NewValidationError("environment is required")
	}
	if _, err := uc.projects.Resolve(ctx, projectID, false); err != nil {
		return model.SelectionDTO{}, err
	}
	current := req.Current.Selection()

	latest, err := uc.latestReport(ctx, projectID)
	if err != nil {
		return model.SelectionDTO{}, err
	}
	if latest == nil {
		return current.DTO(), nil
	}
	parsed := service.ParseCombinedReport(latest.Content)
	missing := service.SelectMissing(parsed.MergedReport, req.FormName, req.Environment)
	return current.Union(missing).DTO(), nil
}

// EntitySummary folds every stored environment report of a project.
func (uc *ReportUsecase) EntitySummary(ctx context.Context, projectID string) (*model.EntitySummary, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, false); err != nil {
		return nil, err
	}
	blobs, err := uc.metadata.List(ctx, projectID, repository.MetadataFilter{MetadataType: model.MetadataTypeEnvironmentReport}, repository.ListOptions{})
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to list environment reports").WithCause(err)
	}
	reports := make([]model.EnvironmentReport, 0, len(blobs))
	for _, b := range blobs {
		if r := service.ParseEnvironmentReport(b.Content); r != nil {
			reports = append(reports, *r)
		}
	}
	summary := service.SummarizeEntities(reports)
	return &summary, nil
}

// HandleMetadataChanged drops cached reports of the project named by the event.
func (uc *ReportUsecase) HandleMetadataChanged(ctx context.Context, event eventbus.Event) error {
	projectID, ok := event.Data().(string)
	if !ok || projectID == "" || uc.cache == nil {
		return nil
	}
	if err := uc.cache.InvalidateProject(ctx, projectID); err != nil {
		return fmt.Errorf("invalidating cached reports of %s: %w", projectID, err)
	}
	return nil
}
