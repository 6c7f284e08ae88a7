package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
	"github.com/Samyy-Momin/onefooddialer/pkg/metrics"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Service drives the registered jobs on a fixed tick, one run per job per
// tick, serialized across replicas by a redis lock.
type Service struct {
	cfg     config.CronConfig
	lock    *jobLock
	metrics *metrics.CronJobMetrics
	logg    *logger.Logger
	jobs    []Job
}

// NewService wires the cron runner.
func NewService(cfg config.CronConfig, store locker, jobMetrics *metrics.CronJobMetrics, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Service{
		cfg:     cfg,
		lock:    newJobLock(store, cfg.LockTTL),
		metrics: jobMetrics,
		logg:    logg,
	}, nil
}

// Register adds a job to the schedule. Not safe to call after Start.
func (s *Service) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start blocks, running all jobs every tick until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logg.Info(s.logg.WithField(ctx, "jobs", len(s.jobs)), "cron runner started")
	s.RunAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron runner stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunAll(ctx)
		}
	}
}

// RunAll executes every registered job once.
func (s *Service) RunAll(ctx context.Context) {
	for _, job := range s.jobs {
		s.runOne(ctx, job)
	}
}

func (s *Service) runOne(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())

	release, acquired, err := s.lock.acquire(ctx, job.Name())
	if err != nil {
		s.logg.Error(jobCtx, "failed to acquire job lock", err)
		s.metrics.IncFailure(job.Name())
		return
	}
	if !acquired {
		return
	}
	defer release()

	start := time.Now()
	err = job.Run(jobCtx)
	s.metrics.ObserveDuration(job.Name(), time.Since(start))
	if err != nil {
		s.metrics.IncFailure(job.Name())
		s.logg.Error(jobCtx, "cron job failed", err)
		return
	}
	s.metrics.IncSuccess(job.Name())
}
