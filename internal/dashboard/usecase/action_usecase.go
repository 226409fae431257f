package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/eventbus"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"

	"go.uber.org/zap"
)

// Verification triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// ActionRequest carries a selection to the terminology service.
type ActionRequest struct {
	Environment string             `json:"environment"`
	Selection   model.SelectionDTO `json:"selection"`
}

// VerificationAccepted is returned once a verification has been queued.
type VerificationAccepted struct {
	ProjectID   string    `json:"project_id"`
	Environment string    `json:"environment"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

type ActionUsecase struct {
	projects    *ProjectUsecase
	terminology repository.TerminologyService
	webhook     repository.VerificationWebhook
	cache       repository.ReportCache
	bus         eventbus.Publisher
	metrics     *metrics.Metrics
	log         logger.Logger
	now         func() time.Time
}

type ActionUsecaseDeps struct {
	Projects    *ProjectUsecase
	Terminology repository.TerminologyService
	Webhook     repository.VerificationWebhook
	Cache       repository.ReportCache
	Bus         eventbus.Publisher
	Metrics     *metrics.Metrics
	Log         logger.Logger
}

func NewActionUsecase(d ActionUsecaseDeps) *ActionUsecase {
	return &ActionUsecase{
		projects:    d.Projects,
		terminology: d.Terminology,
		webhook:     d.Webhook,
		cache:       d.Cache,
		bus:         d.Bus,
		metrics:     d.Metrics,
		log:         d.Log.WithComponent("action_usecase"),
		now:         time.Now,
	}
}

func (uc *ActionUsecase) AddToSource(ctx context.Context, projectID string, req ActionRequest) (*repository.SubmissionResult, error) {
	return uc.submit(ctx, projectID, repository.TargetSource, req)
}

func (uc *ActionUsecase) AddToCollection(ctx context.Context, projectID string, req ActionRequest) (*repository.SubmissionResult, error) {
	return uc.submit(ctx, projectID, repository.TargetCollection, req)
}

func (uc *ActionUsecase) submit(ctx context.Context, projectID string, target repository.TerminologyTarget, req ActionRequest) (*repository.SubmissionResult, error) {
	if _, err := uc.projects.Resolve(ctx, projectID, true); err != nil {
		return nil, err
	}
	sel := req.Selection.Selection()
	if sel.Len() == 0 {
		return nil, errors.NewValidationError("selection is empty")
	}
	userID, _ := principalOf(ctx)

	res, err := uc.terminology.Submit(ctx, target, repository.TerminologySubmission{
		ProjectID:   projectID,
		Environment: req.Environment,
		Questions:   sel.Questions(),
		Answers:     sel.Answers(),
		SubmittedBy: userID,
	})
	if err != nil {
		if errors.IsUpstream(err) || errors.IsValidation(err) {
			return nil, err
		}
		return nil, errors.NewUpstreamError(fmt.Sprintf("add to %s failed", target)).WithCause(err)
	}
	uc.log.WithContext(ctx).Info("selection submitted",
		zap.String("project_id", projectID),
		zap.String("target", string(target)),
		zap.Int("questions", len(sel.Questions())),
		zap.Int("answers", len(sel.Answers())))
	return res, nil
}

// RequestVerification queues a verification for one environment and returns immediately.
func (uc *ActionUsecase) RequestVerification(ctx context.Context, projectID, environment string) (*VerificationAccepted, error) {
	environment = strings.TrimSpace(environment)
	if environment == "" {
		return nil, errors.NewValidationError("environment is required")
	}
	if _, err := uc.projects.Resolve(ctx, projectID, true); err != nil {
		return nil, err
	}
	userID, _ := principalOf(ctx)
	req := repository.VerificationRequest{
		ProjectID:   projectID,
		Environment: environment,
		RequestedBy: userID,
		Trigger:     TriggerManual,
		RequestedAt: uc.now().UTC(),
	}
	uc.Enqueue(ctx, req)
	return &VerificationAccepted{
		ProjectID:   projectID,
		Environment: environment,
		Status:      "accepted",
		RequestedAt: req.RequestedAt,
	}, nil
}

// Enqueue dispatches a verification request through the event bus without waiting.
func (uc *ActionUsecase) Enqueue(ctx context.Context, req repository.VerificationRequest) {
	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventbus.EventTypeVerificationRequested, req, req.Trigger))
}

// Dispatch delivers a verification request and returns once the webhook
// handler has finished.
func (uc *ActionUsecase) Dispatch(ctx context.Context, req repository.VerificationRequest) error {
	return uc.bus.Publish(ctx, eventbus.NewBasicEventWithSource(eventbus.EventTypeVerificationRequested, req, req.Trigger))
}

// HandleVerificationEvent calls the webhook for a queued request.
func (uc *ActionUsecase) HandleVerificationEvent(ctx context.Context, event eventbus.Event) error {
	req, ok := event.Data().(repository.VerificationRequest)
	if !ok {
		return fmt.Errorf("unexpected verification payload %T", event.Data())
	}
	log := uc.log.WithContext(ctx)

	err := uc.webhook.Trigger(ctx, req)
	uc.metrics.Verification(req.Trigger, err)
	if err != nil {
		log.Error("verification webhook failed",
			zap.String("project_id", req.ProjectID),
			zap.String("environment", req.Environment),
			zap.Error(err))
		return err
	}

	if uc.cache != nil {
		if cerr := uc.cache.InvalidateProject(ctx, req.ProjectID); cerr != nil {
			log.Warn("report cache not invalidated", zap.String("project_id", req.ProjectID), zap.Error(cerr))
		}
	}
	log.Info("verification requested",
		zap.String("project_id", req.ProjectID),
		zap.String("environment", req.Environment),
		zap.String("trigger", req.Trigger))
	return nil
}
