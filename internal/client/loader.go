package client

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"onehr/internal/domain/calendar"
	"onehr/internal/domain/employees"
	"onehr/internal/domain/holidays"
	"onehr/internal/domain/notifications"
)

var ErrLoaderClosed = errors.New("calendar loader closed")

// Fetcher is the part of Client the Loader needs.
type Fetcher interface {
	Employees(ctx context.Context) ([]employees.Employee, error)
	Holidays(ctx context.Context, year int) ([]holidays.Holiday, error)
	Notifications(ctx context.Context, year int) ([]notifications.Notification, error)
	CustomOccurrences(ctx context.Context, year int) ([]calendar.Event, error)
}

// Loader keeps a client-side Board in sync with the API. Each refresh fetches
// every source concurrently and each completion replaces only its own slice
// of the board. A failed fetch keeps the slice it had before.
type Loader struct {
	API    Fetcher
	Board  *calendar.Board
	Logger *slog.Logger

	life   context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	years      []int
	generation uint64
	closed     bool
	failed     map[calendar.Source]error
	loadedAt   map[calendar.Source]time.Time
}

func NewLoader(api Fetcher, years ...int) *Loader {
	life, cancel := context.WithCancel(context.Background())
	l := &Loader{
		API:      api,
		Board:    calendar.NewBoard(),
		Logger:   slog.Default(),
		life:     life,
		cancel:   cancel,
		failed:   make(map[calendar.Source]error),
		loadedAt: make(map[calendar.Source]time.Time),
	}
	l.years = normalizeYears(years)
	return l
}

// RefreshResult reports what one Refresh did. Sources listed in Stale were
// dropped because the loader moved on (SetYears or Close) before they
// completed.
type RefreshResult struct {
	Applied []calendar.Source
	Failed  []calendar.Source
	Stale   []calendar.Source
}

// SetYears changes the years projected into the board. Results of refreshes
// started before the change are discarded.
func (l *Loader) SetYears(years ...int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.years = normalizeYears(years)
	l.generation++
}

func (l *Loader) Years() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.years...)
}

// Refresh fetches every source once. It only fails when the loader is closed
// or ctx is done; per-source failures are in the result.
func (l *Loader) Refresh(ctx context.Context) (RefreshResult, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return RefreshResult{}, ErrLoaderClosed
	}
	gen := l.generation
	years := append([]int(nil), l.years...)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(l.life, cancel)
	defer stop()

	var (
		resMu sync.Mutex
		res   RefreshResult
		g     errgroup.Group
	)
	for _, src := range calendar.Sources {
		src := src
		g.Go(func() error {
			events, err := l.fetch(ctx, src, years)
			outcome := l.apply(gen, src, events, err)
			resMu.Lock()
			switch outcome {
			case outcomeApplied:
				res.Applied = append(res.Applied, src)
			case outcomeFailed:
				res.Failed = append(res.Failed, src)
			case outcomeStale:
				res.Stale = append(res.Stale, src)
			}
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sortSources(res.Applied)
	sortSources(res.Failed)
	sortSources(res.Stale)

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return res, ErrLoaderClosed
	}
	return res, context.Cause(ctx)
}

func (l *Loader) fetch(ctx context.Context, src calendar.Source, years []int) ([]calendar.Event, error) {
	switch src {
	case calendar.SourceEmployees:
		roster, err := l.API.Employees(ctx)
		if err != nil {
			return nil, err
		}
		batches := make([][]calendar.Event, 0, len(years))
		for _, year := range years {
			batches = append(batches, calendar.Project(roster, year))
		}
		return calendar.Merge(batches...), nil
	case calendar.SourceHolidays:
		var batches [][]calendar.Event
		for _, year := range years {
			list, err := l.API.Holidays(ctx, year)
			if err != nil {
				return nil, err
			}
			batches = append(batches, calendar.FromHolidays(list))
		}
		return calendar.Merge(batches...), nil
	case calendar.SourceNotifications:
		var batches [][]calendar.Event
		for _, year := range years {
			list, err := l.API.Notifications(ctx, year)
			if err != nil {
				return nil, err
			}
			batches = append(batches, calendar.FromNotifications(list))
		}
		return calendar.Merge(batches...), nil
	case calendar.SourceCustom:
		var batches [][]calendar.Event
		for _, year := range years {
			list, err := l.API.CustomOccurrences(ctx, year)
			if err != nil {
				return nil, err
			}
			batches = append(batches, list)
		}
		return calendar.Merge(batches...), nil
	default:
		return nil, calendar.ErrUnknownSource
	}
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeFailed
	outcomeStale
)

func (l *Loader) apply(gen uint64, src calendar.Source, events []calendar.Event, err error) outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || gen != l.generation {
		return outcomeStale
	}
	if err == nil {
		err = l.Board.Replace(src, events)
	}
	if err != nil {
		l.logger().Warn("calendar source refresh failed", "source", src, "err", err)
		l.failed[src] = err
		return outcomeFailed
	}
	delete(l.failed, src)
	l.loadedAt[src] = time.Now()
	return outcomeApplied
}

// Failed returns the sources whose latest fetch failed and the error.
func (l *Loader) Failed() map[calendar.Source]error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[calendar.Source]error, len(l.failed))
	for src, err := range l.failed {
		out[src] = err
	}
	return out
}

// LoadedAt is when src was last replaced; zero when it never loaded.
func (l *Loader) LoadedAt(src calendar.Source) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadedAt[src]
}

func (l *Loader) View(visible calendar.Visibility, weekStart time.Weekday) calendar.View {
	return calendar.NewView(l.Board.Events(), visible, weekStart)
}

// Close cancels in-flight fetches. Anything they return afterwards is
// dropped. Close is idempotent.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cancel()
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func normalizeYears(years []int) []int {
	seen := make(map[int]struct{}, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if y <= 0 {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	if len(out) == 0 {
		out = append(out, time.Now().Year())
	}
	sort.Ints(out)
	return out
}

func sortSources(list []calendar.Source) {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
}
