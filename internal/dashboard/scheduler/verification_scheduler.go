// Package scheduler re-verifies active projects on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"emr-metadata-dashboard/internal/dashboard/config"
	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/dashboard/usecase"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const requestedBy = "scheduler"

type ProjectLister interface {
	ListActive(ctx context.Context) ([]*model.Project, error)
}

// VerificationDispatcher delivers one request and blocks until it is handled.
type VerificationDispatcher interface {
	Dispatch(ctx context.Context, req repository.VerificationRequest) error
}

// VerificationScheduler queues a verification for every active project and
// configured environment each time the schedule fires.
type VerificationScheduler struct {
	schedule     string
	environments []string
	concurrency  int
	projects     ProjectLister
	dispatcher   VerificationDispatcher
	log          logger.Logger
	now          func() time.Time

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

func NewVerificationScheduler(cfg config.SchedulerConfig, projects ProjectLister, dispatcher VerificationDispatcher, log logger.Logger) *VerificationScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	envs := make([]string, 0, len(cfg.Environments))
	for _, e := range cfg.Environments {
		if e = strings.TrimSpace(e); e != "" {
			envs = append(envs, e)
		}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &VerificationScheduler{
		schedule:     strings.TrimSpace(cfg.VerificationSchedule),
		environments: envs,
		concurrency:  concurrency,
		projects:     projects,
		dispatcher:   dispatcher,
		log:          log.WithComponent("verification_scheduler"),
		now:          time.Now,
		cron:         cron.New(cron.WithSeconds()),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Enabled reports whether a schedule is configured.
func (s *VerificationScheduler) Enabled() bool {
	return s.schedule != ""
}

// Start registers the job and starts the cron runner. Without a schedule it does nothing.
func (s *VerificationScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled() {
		s.log.Info("verification schedule not configured, scheduler disabled")
		return nil
	}
	if s.started {
		return fmt.Errorf("verification scheduler already started")
	}
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("invalid verification schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.started = true
	s.log.Info("verification scheduler started",
		zap.String("schedule", s.schedule),
		zap.Strings("environments", s.environments))
	return nil
}

// Stop halts the runner and waits for a running tick to return or ctx to expire.
func (s *VerificationScheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.started {
		return
	}
	s.started = false
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("verification scheduler did not stop in time")
	}
}

func (s *VerificationScheduler) tick() {
	n, err := s.RunOnce(s.ctx)
	if err != nil {
		s.log.Error("scheduled verification failed", zap.Error(err))
		return
	}
	s.log.Info("scheduled verification finished", zap.Int("delivered", n))
}

// RunOnce dispatches one verification per active project and environment,
// at most s.concurrency at a time, and returns how many were delivered.
// A failed delivery is logged and does not stop the others.
func (s *VerificationScheduler) RunOnce(ctx context.Context) (int, error) {
	if len(s.environments) == 0 {
		return 0, nil
	}
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing active projects: %w", err)
	}

	requestedAt := s.now().UTC()
	var (
		mu        sync.Mutex
		delivered int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range projects {
		for _, env := range s.environments {
			req := repository.VerificationRequest{
				ProjectID:   p.ID,
				Environment: env,
				RequestedBy: requestedBy,
				Trigger:     usecase.TriggerScheduled,
				RequestedAt: requestedAt,
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.dispatcher.Dispatch(gctx, req); err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					s.log.Warn("scheduled verification not delivered",
						zap.String("project_id", req.ProjectID),
						zap.String("environment", req.Environment),
						zap.Error(err))
					return nil
				}
				mu.Lock()
				delivered++
				mu.Unlock()
				return nil
			})
		}
	}
	err = g.Wait()
	return delivered, err
}
