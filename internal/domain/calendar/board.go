package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Source is one independently refreshed slice of the calendar.
type Source string

const (
	SourceEmployees     Source = "employees"
	SourceHolidays      Source = "holidays"
	SourceNotifications Source = "notifications"
	SourceCustom        Source = "custom"
)

var Sources = []Source{SourceEmployees, SourceHolidays, SourceNotifications, SourceCustom}

var sourceTypes = map[Source][]EventType{
	SourceEmployees:     {TypeBirthday, TypeAnniversary},
	SourceHolidays:      {TypeHoliday},
	SourceNotifications: {TypeNotification, TypeLicense, TypeCertification, TypeImmigration},
	SourceCustom:        {TypeCustom},
}

var ErrUnknownSource = errors.New("unknown calendar source")

// Types lists the event types owned by s.
func (s Source) Types() []EventType {
	return append([]EventType(nil), sourceTypes[s]...)
}

func (s Source) owns(t EventType) bool {
	for _, owned := range sourceTypes[s] {
		if owned == t {
			return true
		}
	}
	return false
}

// SourceOf returns the source that owns t.
func SourceOf(t EventType) (Source, bool) {
	for _, s := range Sources {
		if s.owns(t) {
			return s, true
		}
	}
	return "", false
}

// Board is the canonical event collection, keyed by event id. Each source
// replaces only the event types it owns, so refreshing one source never
// drops or duplicates another source's events. Safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	events  map[string]Event
	version uint64
}

func NewBoard() *Board {
	return &Board{events: make(map[string]Event)}
}

// Replace drops every event of src's types and splices in batch, last write
// wins on duplicate ids. Events in batch whose type src does not own are
// ignored.
func (b *Board) Replace(src Source, batch []Event) error {
	if _, ok := sourceTypes[src]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ev := range b.events {
		if src.owns(ev.Type) {
			delete(b.events, id)
		}
	}
	for _, ev := range batch {
		if !src.owns(ev.Type) {
			slog.Warn("calendar event outside source partition", "source", src, "type", ev.Type, "id", ev.ID)
			continue
		}
		b.events[ev.ID] = ev
	}
	b.version++
	return nil
}

// Events returns a copy of the collection ordered by date then id.
func (b *Board) Events() []Event {
	b.mu.RLock()
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *Board) Get(id string) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev, ok := b.events[id]
	return ev, ok
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Version increases on every Replace.
func (b *Board) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Merge folds batches into one collection deduplicated by id. A later event
// replaces an earlier one in place, so first-seen order is kept.
func Merge(batches ...[]Event) []Event {
	index := make(map[string]int)
	var out []Event
	for _, batch := range batches {
		for _, ev := range batch {
			if i, ok := index[ev.ID]; ok {
				out[i] = ev
				continue
			}
			index[ev.ID] = len(out)
			out = append(out, ev)
		}
	}
	return out
}
