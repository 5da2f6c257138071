package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"onehr/internal/domain/calendar"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	assembles     uint64
	assembleMs    uint64
	alertRuns     uint64
	alertsCreated uint64
	alertsSkipped uint64

	mu             sync.Mutex
	failedBySource map[calendar.Source]uint64
}

func New() *Collector {
	return &Collector{failedBySource: make(map[calendar.Source]uint64)}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordAssemble counts one assembled calendar and the sources that failed
// while loading it.
func (c *Collector) RecordAssemble(failed []calendar.Source, elapsed time.Duration) {
	atomic.AddUint64(&c.assembles, 1)
	atomic.AddUint64(&c.assembleMs, uint64(elapsed.Milliseconds()))
	if len(failed) == 0 {
		return
	}
	c.mu.Lock()
	for _, src := range failed {
		c.failedBySource[src]++
	}
	c.mu.Unlock()
}

func (c *Collector) RecordAlertRun(run calendar.AlertRun) {
	atomic.AddUint64(&c.alertRuns, 1)
	atomic.AddUint64(&c.alertsCreated, uint64(run.Created))
	atomic.AddUint64(&c.alertsSkipped, uint64(run.Skipped))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	assembles := atomic.LoadUint64(&c.assembles)
	assembleAvg := float64(0)
	if assembles > 0 {
		assembleAvg = float64(atomic.LoadUint64(&c.assembleMs)) / float64(assembles)
	}
	c.mu.Lock()
	failed := make(map[string]uint64, len(c.failedBySource))
	for src, n := range c.failedBySource {
		failed[string(src)] = n
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"rateLimitedTotal":     limited,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"calendarAssembles":    assembles,
		"calendarAvgMs":        assembleAvg,
		"calendarSourceErrors": failed,
		"alertRuns":            atomic.LoadUint64(&c.alertRuns),
		"alertsCreated":        atomic.LoadUint64(&c.alertsCreated),
		"alertsSkipped":        atomic.LoadUint64(&c.alertsSkipped),
	}
}
