package calendar

import (
	"strings"
)

// Visibility is the set of event types shown by a View. The zero value shows
// every type. Methods return new values and never mutate the receiver.
type Visibility struct {
	hidden map[EventType]struct{}
}

func AllVisible() Visibility {
	return Visibility{}
}

// OnlyTypes shows exactly types.
func OnlyTypes(types ...EventType) Visibility {
	keep := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		keep[t] = struct{}{}
	}
	v := Visibility{hidden: make(map[EventType]struct{})}
	for _, t := range AllTypes {
		if _, ok := keep[t]; !ok {
			v.hidden[t] = struct{}{}
		}
	}
	return v
}

// ParseVisibility reads a comma separated list of visible types. An empty
// value shows everything.
func ParseVisibility(value string) (Visibility, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return AllVisible(), nil
	}
	var types []EventType
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseType(part)
		if err != nil {
			return Visibility{}, err
		}
		types = append(types, t)
	}
	return OnlyTypes(types...), nil
}

func (v Visibility) Enabled(t EventType) bool {
	_, hidden := v.hidden[t]
	return !hidden
}

func (v Visibility) Toggle(t EventType) Visibility {
	if v.Enabled(t) {
		return v.Hide(t)
	}
	return v.Show(t)
}

func (v Visibility) Hide(types ...EventType) Visibility {
	next := v.clone()
	for _, t := range types {
		next.hidden[t] = struct{}{}
	}
	return next
}

func (v Visibility) Show(types ...EventType) Visibility {
	next := v.clone()
	for _, t := range types {
		delete(next.hidden, t)
	}
	return next
}

// EnabledTypes lists visible types in display order.
func (v Visibility) EnabledTypes() []EventType {
	out := make([]EventType, 0, len(AllTypes))
	for _, t := range AllTypes {
		if v.Enabled(t) {
			out = append(out, t)
		}
	}
	return out
}

func (v Visibility) Filter(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if v.Enabled(ev.Type) {
			out = append(out, ev)
		}
	}
	return out
}

func (v Visibility) String() string {
	types := v.EnabledTypes()
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func (v Visibility) clone() Visibility {
	next := Visibility{hidden: make(map[EventType]struct{}, len(v.hidden)+1)}
	for t := range v.hidden {
		next.hidden[t] = struct{}{}
	}
	return next
}
