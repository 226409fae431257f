package dashboard

import (
	"context"
	"fmt"

	"emr-metadata-dashboard/internal/dashboard/adapter/cache"
	httpadapter "emr-metadata-dashboard/internal/dashboard/adapter/http"
	"emr-metadata-dashboard/internal/dashboard/adapter/persistence/mongodb"
	"emr-metadata-dashboard/internal/dashboard/adapter/upstream"
	"emr-metadata-dashboard/internal/dashboard/config"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/domain/service"
	"emr-metadata-dashboard/internal/dashboard/scheduler"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/eventbus"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DashboardModule wires the coverage dashboard: persistence, upstream
// clients, use cases, HTTP handlers and the verification scheduler.
type DashboardModule struct {
	Config *config.Config
	Logger logger.Logger
	DB     *mongo.Database
	Bus    *eventbus.EventBus

	Organizations *usecase.OrganizationUsecase
	Projects      *usecase.ProjectUsecase
	Metadata      *usecase.MetadataUsecase
	Reports       *usecase.ReportUsecase
	Actions       *usecase.ActionUsecase
	FormGenerator *usecase.FormGeneratorUsecase
	Scheduler     *scheduler.VerificationScheduler
}

// NewDashboardModule builds the module from cfg. A nil redisClient
// disables report caching.
func NewDashboardModule(cfg *config.Config, log logger.Logger, db *mongo.Database, redisClient redis.UniversalClient, m *metrics.Metrics) (*DashboardModule, error) {
	log = log.WithComponent("dashboard")
	log.Info("Initializing dashboard module...")

	tabs, err := service.NewTabClassifier(cfg.TabRules())
	if err != nil {
		return nil, fmt.Errorf("invalid tab rules: %w", err)
	}

	bus := eventbus.NewEventBus(log)

	orgRepo := mongodb.NewOrganizationRepository(db)
	projectRepo := mongodb.NewProjectRepository(db)
	metadataRepo := mongodb.NewMetadataRepository(db)

	var reportCache repository.ReportCache
	if redisClient != nil {
		reportCache = cache.NewReportCache(redisClient, log)
	} else {
		log.Warn("Redis not configured, coverage reports will not be cached")
	}

	formGen := upstream.NewFormGeneratorClient(cfg.Upstream.FormGeneratorURL, cfg.HealthURL(), cfg.Upstream.Timeout, m)
	webhook := upstream.NewWebhookClient(cfg.Upstream.VerificationWebhookURL, cfg.Upstream.Timeout, m)
	ocl := upstream.NewOCLClient(cfg.Upstream.OCLSourceURL, cfg.Upstream.OCLCollectionURL, cfg.Upstream.OCLAPIToken, cfg.Upstream.Timeout, m)

	orgUC := usecase.NewOrganizationUsecase(orgRepo, log)
	projectUC := usecase.NewProjectUsecase(orgRepo, projectRepo, metadataRepo, bus, log)
	metadataUC := usecase.NewMetadataUsecase(projectUC, metadataRepo, bus, log)
	reportUC := usecase.NewReportUsecase(usecase.ReportUsecaseDeps{
		Projects:   projectUC,
		Metadata:   metadataRepo,
		Cache:      reportCache,
		CacheTTL:   cfg.Report.CacheTTL,
		Aggregator: service.NewCoverageAggregator(cfg.Thresholds()),
		Tabs:       tabs,
		Sample:     usecase.NewSampleReportProvider(cfg.Report.SampleReportPath, log),
		Metrics:    m,
		Log:        log,
	})
	actionUC := usecase.NewActionUsecase(usecase.ActionUsecaseDeps{
		Projects:    projectUC,
		Terminology: ocl,
		Webhook:     webhook,
		Cache:       reportCache,
		Bus:         bus,
		Metrics:     m,
		Log:         log,
	})
	formGenUC := usecase.NewFormGeneratorUsecase(formGen, usecase.JobWaitOptions{
		Interval:             cfg.Jobs.PollInterval,
		RetryDelay:           cfg.Jobs.RetryDelay,
		MaxConsecutiveErrors: cfg.Jobs.MaxErrors,
		Timeout:              cfg.Jobs.WaitTimeout,
	}, m, log)

	bus.Subscribe(eventbus.EventTypeVerificationRequested, actionUC.HandleVerificationEvent)
	bus.Subscribe(eventbus.EventTypeMetadataChanged, reportUC.HandleMetadataChanged)

	sched := scheduler.NewVerificationScheduler(cfg.Scheduler, projectRepo, actionUC, log)

	log.Info("Dashboard module initialized",
		zap.String("form_generator", cfg.Upstream.FormGeneratorURL),
		zap.Bool("report_cache", reportCache != nil),
		zap.Bool("scheduler", sched.Enabled()))

	return &DashboardModule{
		Config:        cfg,
		Logger:        log,
		DB:            db,
		Bus:           bus,
		Organizations: orgUC,
		Projects:      projectUC,
		Metadata:      metadataUC,
		Reports:       reportUC,
		Actions:       actionUC,
		FormGenerator: formGenUC,
		Scheduler:     sched,
	}, nil
}

// RegisterRoutes mounts the protected API under api (/api/v1), the public
// paths under public (/api) and the job stream on root. protect guards only
// the dashboard's own prefixes.
func (m *DashboardModule) RegisterRoutes(root, public, api fiber.Router, protect fiber.Handler) {
	httpadapter.NewPublicHandler(m.Reports, m.FormGenerator, m.Logger).RegisterRoutes(public)

	httpadapter.NewOrganizationHandler(m.Organizations, m.Projects, m.Logger).RegisterRoutes(api, protect)
	httpadapter.NewProjectHandler(m.Metadata, m.Reports, m.Actions, m.Logger).RegisterRoutes(api, protect)
	httpadapter.NewFormGeneratorHandler(m.FormGenerator, m.Logger).RegisterRoutes(api, protect)
	httpadapter.NewJobStreamHandler(m.FormGenerator, m.Logger).RegisterRoutes(root, protect)

	m.Logger.Info("Dashboard HTTP routes registered")
}

// Start creates indexes and starts the verification scheduler.
func (m *DashboardModule) Start(ctx context.Context) error {
	if err := mongodb.EnsureIndexes(ctx, m.DB); err != nil {
		return fmt.Errorf("creating dashboard indexes: %w", err)
	}
	return m.Scheduler.Start()
}

// Stop halts the scheduler and waits for queued verifications to be sent.
func (m *DashboardModule) Stop(ctx context.Context) error {
	m.Logger.Info("Stopping dashboard module...")
	m.Scheduler.Stop(ctx)
	if err := m.Bus.Drain(ctx); err != nil {
		m.Logger.Warn("pending verifications not delivered before shutdown", zap.Error(err))
		return err
	}
	m.Logger.Info("Dashboard module stopped")
	return nil
}
