package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/civil"
	"onehr/internal/platform/config"
)

type fakeTenants []string

func (f fakeTenants) ListTenantIDs(ctx context.Context) ([]string, error) {
	return f, nil
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls map[string]civil.Day
	err   error
	done  chan string
}

func (f *fakeAlerts) Generate(ctx context.Context, tenantID string, today civil.Day) (calendar.AlertRun, error) {
	f.mu.Lock()
	f.calls[tenantID] = today
	f.mu.Unlock()
	if f.done != nil {
		f.done <- tenantID
	}
	return calendar.AlertRun{From: today, Created: 2}, f.err
}

type fakeRuns struct {
	mu       sync.Mutex
	statuses []string
}

func (f *fakeRuns) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	return "run-" + tenantID, nil
}

func (f *fakeRuns) Finish(ctx context.Context, runID, status string, details any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, runID+":"+status)
	return nil
}

type countingRecorder struct {
	created int
}

func (c *countingRecorder) RecordAlertRun(run calendar.AlertRun) {
	c.created += run.Created
}

func TestGenerateAlertsRecordsRun(t *testing.T) {
	alerts := &fakeAlerts{calls: map[string]civil.Day{}}
	runs := &fakeRuns{}
	rec := &countingRecorder{}
	svc := New(config.Config{Location: time.UTC}, fakeTenants{"t1"}, alerts, runs)
	svc.Recorder = rec
	svc.Now = func() time.Time { return time.Date(2025, time.June, 1, 23, 30, 0, 0, time.UTC) }

	run, err := svc.GenerateAlerts(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, "2025-06-01", alerts.calls["t1"].String())
	assert.Equal(t, []string{"run-t1:completed"}, runs.statuses)
	assert.Equal(t, 2, rec.created)
}

func TestGenerateAlertsFailureMarksRun(t *testing.T) {
	alerts := &fakeAlerts{calls: map[string]civil.Day{}, err: errors.New("db down")}
	runs := &fakeRuns{}
	svc := New(config.Config{}, fakeTenants{"t1"}, alerts, runs)

	_, err := svc.GenerateAlerts(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, []string{"run-t1:failed"}, runs.statuses)
}

func TestScheduledAlertsFanOutPerTenant(t *testing.T) {
	defer goleak.VerifyNone(t)

	alerts := &fakeAlerts{calls: map[string]civil.Day{}, done: make(chan string, 2)}
	svc := New(config.Config{}, fakeTenants{"t1", "t2"}, alerts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	svc.scheduleAlerts(ctx)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case tenant := <-alerts.done:
			got[tenant] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for scheduled alerts")
		}
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, map[string]bool{"t1": true, "t2": true}, got)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(config.Config{AlertSchedule: "not a schedule"}, fakeTenants{}, &fakeAlerts{calls: map[string]civil.Day{}}, nil)
	assert.Error(t, svc.Start(ctx))
}
