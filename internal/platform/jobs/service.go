package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/platform/config"
)

const JobCalendarAlerts = "calendar_alerts"

type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

type AlertGenerator interface {
	Generate(ctx context.Context, tenantID string, today civil.Day) (calendar.AlertRun, error)
}

type AlertRecorder interface {
	RecordAlertRun(run calendar.AlertRun)
}

// RunLog persists job executions. A nil RunLog skips bookkeeping.
type RunLog interface {
	Start(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details any) error
}

type Service struct {
	Cfg      config.Config
	Tenants  TenantLister
	Alerts   AlertGenerator
	Runs     RunLog
	Recorder AlertRecorder
	Now      func() time.Time

	queue chan job
	cron  *cron.Cron
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(cfg config.Config, tenants TenantLister, alerts AlertGenerator, runs RunLog) *Service {
	return &Service{
		Cfg:     cfg,
		Tenants: tenants,
		Alerts:  alerts,
		Runs:    runs,
		Now:     time.Now,
		queue:   make(chan job, 128),
	}
}

// Start runs the worker and, when ALERT_SCHEDULE is set, the cron schedule
// until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	go s.worker(ctx)
	if s.Cfg.AlertSchedule == "" {
		return nil
	}

	s.cron = cron.New(cron.WithLocation(s.location()))
	if _, err := s.cron.AddFunc(s.Cfg.AlertSchedule, func() { s.scheduleAlerts(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	slog.Info("calendar alert schedule started", "schedule", s.Cfg.AlertSchedule, "leadDays", s.Cfg.AlertLeadDays)
	return nil
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// GenerateAlerts runs the alert job for one tenant synchronously.
func (s *Service) GenerateAlerts(ctx context.Context, tenantID string) (calendar.AlertRun, error) {
	details, err := s.RunNow(ctx, JobCalendarAlerts, tenantID, s.alertJob(tenantID))
	run, _ := details.(calendar.AlertRun)
	return run, err
}

func (s *Service) alertJob(tenantID string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		today := civil.Today(s.Now(), s.location())
		run, err := s.Alerts.Generate(ctx, tenantID, today)
		if s.Recorder != nil {
			s.Recorder.RecordAlertRun(run)
		}
		return run, err
	}
}

func (s *Service) scheduleAlerts(ctx context.Context) {
	tenants, err := s.Tenants.ListTenantIDs(ctx)
	if err != nil {
		slog.Warn("alert scheduler tenant lookup failed", "err", err)
		return
	}
	for _, tenantID := range tenants {
		s.Enqueue(JobCalendarAlerts, tenantID, s.alertJob(tenantID))
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.Runs != nil {
		id, err := s.Runs.Start(ctx, j.TenantID, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	if runID != "" {
		if finErr := s.Runs.Finish(ctx, runID, status, details); finErr != nil {
			slog.Warn("job run update failed", "err", finErr)
		}
	}
	return details, err
}

func (s *Service) location() *time.Location {
	if s.Cfg.Location == nil {
		return time.Local
	}
	return s.Cfg.Location
}

// PGRunLog records job runs in the job_runs table.
type PGRunLog struct {
	DB *pgxpool.Pool
}

func (l PGRunLog) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	err := l.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, "running").Scan(&runID)
	return runID, err
}

func (l PGRunLog) Finish(ctx context.Context, runID, status string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	_, err = l.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}
