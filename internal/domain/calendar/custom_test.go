package calendar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onehr/internal/domain/civil"
)

const customUUID = "8f14e45f-ceea-4e7a-9c1b-0a5b1d3c2e10"

func TestNormalizeCustomEvent(t *testing.T) {
	tests := []struct {
		name   string
		in     CustomEvent
		fields []string
	}{
		{name: "valid", in: CustomEvent{Title: " Offsite ", Date: civil.MustParse("2025-06-01")}},
		{name: "valid recurring", in: CustomEvent{Title: "Standup", Date: civil.MustParse("2025-06-02"), Recurrence: "RRULE:FREQ=WEEKLY;BYDAY=MO"}},
		{name: "missing title and date", in: CustomEvent{}, fields: []string{"title", "date"}},
		{name: "bad color", in: CustomEvent{Title: "x", Date: civil.MustParse("2025-06-01"), Color: "red"}, fields: []string{"color"}},
		{name: "bad priority", in: CustomEvent{Title: "x", Date: civil.MustParse("2025-06-01"), Priority: "whenever"}, fields: []string{"priority"}},
		{name: "bad recurrence", in: CustomEvent{Title: "x", Date: civil.MustParse("2025-06-01"), Recurrence: "FREQ=SOMETIMES"}, fields: []string{"recurrence"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Normalize()
			if len(tc.fields) == 0 {
				require.NoError(t, err)
				assert.NotContains(t, got.Recurrence, "RRULE:")
				return
			}
			require.ErrorIs(t, err, ErrInvalidEvent)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tc.fields, fields)
		})
	}
}

func TestOccurrencesSingle(t *testing.T) {
	c := CustomEvent{ID: customUUID, Title: "Offsite", Date: civil.MustParse("2025-06-01")}

	events, err := c.Occurrences(civil.MustParse("2025-01-01"), civil.MustParse("2025-12-31"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "custom-"+customUUID, events[0].ID)
	assert.Equal(t, TypeCustom.Color(), events[0].Color)
	assert.False(t, events[0].Recurring)

	events, err = c.Occurrences(civil.MustParse("2026-01-01"), civil.MustParse("2026-12-31"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOccurrencesRecurring(t *testing.T) {
	c := CustomEvent{ID: customUUID, Title: "Payroll cutoff", Date: civil.MustParse("2024-11-15"), Recurrence: "FREQ=MONTHLY;BYMONTHDAY=15"}

	events, err := c.Occurrences(civil.MustParse("2025-01-01"), civil.MustParse("2025-03-31"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2025-01-15", events[0].Date.String())
	assert.Equal(t, "custom-"+customUUID+"-20250115", events[0].ID)
	assert.Equal(t, "2025-03-15", events[2].Date.String())
	assert.True(t, events[2].Recurring)
	assert.Equal(t, customUUID, events[2].SourceID)
}

func TestExpandCustomSkipsBrokenRules(t *testing.T) {
	list := []CustomEvent{
		{ID: "a", Title: "Broken", Date: civil.MustParse("2025-01-01"), Recurrence: "FREQ=NEVER"},
		{ID: "b", Title: "Fine", Date: civil.MustParse("2025-01-02")},
	}
	events := ExpandCustom(list, civil.MustParse("2025-01-01"), civil.MustParse("2025-12-31"))
	require.Len(t, events, 1)
	assert.Equal(t, "custom-b", events[0].ID)
}

func TestParseEventRef(t *testing.T) {
	tests := []struct {
		id      string
		want    EventRef
		wantErr error
	}{
		{id: "custom-" + customUUID, want: EventRef{Type: TypeCustom, RowID: customUUID}},
		{id: "custom-" + customUUID + "-20250115", want: EventRef{Type: TypeCustom, RowID: customUUID}},
		{id: customUUID, want: EventRef{Type: TypeCustom, RowID: customUUID}},
		{id: "holiday-" + customUUID, want: EventRef{Type: TypeHoliday, RowID: customUUID}},
		{id: "birthday-e1-2025", wantErr: ErrReadOnlyEvent},
		{id: "anniversary-e1-2025", wantErr: ErrReadOnlyEvent},
		{id: "notif-" + customUUID, wantErr: ErrReadOnlyEvent},
		{id: "custom-nope", wantErr: ErrUnknownEvent},
		{id: "custom-" + customUUID + "x", wantErr: ErrUnknownEvent},
		{id: "", wantErr: ErrUnknownEvent},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.id, func(t *testing.T) {
			got, err := ParseEventRef(tc.id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
