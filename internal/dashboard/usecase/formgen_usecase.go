package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"
	"emr-metadata-dashboard/internal/shared/poller"

	"go.uber.org/zap"
)

// JobWaitOptions tune WaitForJob.
type JobWaitOptions struct {
	Interval             time.Duration
	RetryDelay           time.Duration
	MaxConsecutiveErrors int
	Timeout              time.Duration
}

type FormGeneratorUsecase struct {
	client  repository.FormGenerator
	wait    JobWaitOptions
	metrics *metrics.Metrics
	log     logger.Logger
}

func NewFormGeneratorUsecase(client repository.FormGenerator, wait JobWaitOptions, m *metrics.Metrics, log logger.Logger) *FormGeneratorUsecase {
	return &FormGeneratorUsecase{
		client:  client,
		wait:    wait,
		metrics: m,
		log:     log.WithComponent("form_generator_usecase"),
	}
}

// Sheets lists the form sheets of an uploaded workbook.
func (uc *FormGeneratorUsecase) Sheets(ctx context.Context, fileName string, workbook []byte) ([]string, error) {
	if len(workbook) == 0 {
		return nil, errors.NewValidationError(model.ErrWorkbookMissing.Error())
	}
	names, err := uc.client.Sheets(ctx, fileName, workbook)
	if err != nil {
		return nil, upstream("failed to read workbook sheets", err)
	}
	return model.FormSheets(names), nil
}

// Generate starts a generation job and returns its id.
func (uc *FormGeneratorUsecase) Generate(ctx context.Context, req model.GenerateRequest) (string, error) {
	if len(req.File) == 0 {
		return "", errors.NewValidationError(model.ErrWorkbookMissing.Error())
	}
	req.Sheets = model.FormSheets(req.Sheets)
	if len(req.Sheets) == 0 {
		return "", errors.NewValidationError(model.ErrNoSheets.Error())
	}
	jobID, err := uc.client.Generate(ctx, req)
	if err != nil {
		return "", upstream("failed to start form generation", err)
	}
	uc.log.WithContext(ctx).Info("form generation started",
		zap.String("job_id", jobID),
		zap.Int("sheets", len(req.Sheets)),
		zap.Bool("preview", req.Preview))
	return jobID, nil
}

func (uc *FormGeneratorUsecase) Status(ctx context.Context, jobID string) (*model.FormJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.NewValidationError(model.ErrJobIDRequired.Error())
	}
	job, err := uc.client.Status(ctx, jobID)
	if err != nil {
		uc.metrics.JobPoll("error")
		if stderrors.Is(err, model.ErrJobNotFound) {
			return nil, errors.NewNotFoundError("job").WithCause(err)
		}
		return nil, upstream("failed to fetch job status", err)
	}
	uc.metrics.JobPoll(string(job.Status))
	return job, nil
}

// WaitForJob polls a job until it completes or fails. onUpdate sees every snapshot.
// Transient errors are retried with the configured delay; ctx cancellation stops the loop.
func (uc *FormGeneratorUsecase) WaitForJob(ctx context.Context, jobID string, onUpdate func(*model.FormJob)) (*model.FormJob, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.NewValidationError(model.ErrJobIDRequired.Error())
	}
	if uc.wait.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.wait.Timeout)
		defer cancel()
	}

	job, err := poller.Poll(ctx,
		poller.Options{
			Interval:             uc.wait.Interval,
			RetryDelay:           uc.wait.RetryDelay,
			MaxConsecutiveErrors: uc.wait.MaxConsecutiveErrors,
		},
		func(ctx context.Context) (*model.FormJob, error) {
			j, err := uc.Status(ctx, jobID)
			if err != nil && (errors.IsNotFound(err) || errors.IsValidation(err)) {
				// unknown jobs never appear later
				return nil, poller.Permanent(err)
			}
			if err != nil {
				uc.log.WithContext(ctx).Warn("job status poll failed", zap.String("job_id", jobID), zap.Error(err))
			}
			return j, err
		},
		func(j *model.FormJob) bool { return j != nil && j.Status.Terminal() },
		onUpdate,
	)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return job, errors.NewUpstreamError("job did not finish in time").WithCause(err)
		}
		return job, err
	}
	if job.Status == model.JobFailed {
		uc.log.WithContext(ctx).Warn("form generation failed", zap.String("job_id", jobID), zap.String("reason", job.Reason))
	}
	return job, nil
}

func (uc *FormGeneratorUsecase) Forms(ctx context.Context) ([]model.GeneratedForm, error) {
	forms, err := uc.client.Forms(ctx)
	if err != nil {
		return nil, upstream("failed to list generated forms", err)
	}
	return forms, nil
}

// Form downloads a generated form, or its translation when translation is set.
func (uc *FormGeneratorUsecase) Form(ctx context.Context, name string, translation, download bool) (*model.FormArtifact, error) {
	if !validFormName(name) {
		return nil, errors.NewValidationError(model.ErrFormNameInvalid.Error())
	}
	art, err := uc.client.Form(ctx, name, translation, download)
	if err != nil {
		if stderrors.Is(err, model.ErrJobNotFound) || errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("form").WithCause(err)
		}
		return nil, upstream("failed to fetch form", err)
	}
	return art, nil
}

// Health proxies the upstream health document.
func (uc *FormGeneratorUsecase) Health(ctx context.Context) (json.RawMessage, error) {
	doc, err := uc.client.Health(ctx)
	if err != nil {
		return nil, upstream("Failed to connect to API", err)
	}
	return doc, nil
}

func validFormName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.Contains(name, "/") && !strings.Contains(name, `\`) && !strings.Contains(name, "..")
}

func upstream(msg string, err error) error {
	if errors.IsUpstream(err) || errors.IsValidation(err) || errors.IsNotFound(err) {
		return err
	}
	return errors.NewUpstreamError(msg).WithCause(err)
}
