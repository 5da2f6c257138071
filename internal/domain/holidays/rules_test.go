package holidays

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUSHolidays2025(t *testing.T) {
	rules, err := USRules()
	require.NoError(t, err)

	byName := map[string]string{}
	for _, h := range rules.Resolve(2025) {
		byName[h.Name] = h.Date.String()
		assert.Equal(t, "US", h.Region)
		assert.Equal(t, KindFederal, h.Kind)
	}

	assert.Equal(t, "2025-01-01", byName["New Year's Day"])
	assert.Equal(t, "2025-01-20", byName["Birthday of Martin Luther King, Jr."])
	assert.Equal(t, "2025-02-17", byName["Washington's Birthday"])
	assert.Equal(t, "2025-05-26", byName["Memorial Day"])
	assert.Equal(t, "2025-09-01", byName["Labor Day"])
	assert.Equal(t, "2025-10-13", byName["Columbus Day"])
	assert.Equal(t, "2025-11-27", byName["Thanksgiving Day"])
	assert.Equal(t, "2025-12-25", byName["Christmas Day"])
}

func TestResolveAddsObservedDates(t *testing.T) {
	rules, err := USRules()
	require.NoError(t, err)

	byName := map[string]Holiday{}
	for _, h := range rules.Resolve(2026) {
		byName[h.Name] = h
	}

	// July 4 2026 is a Saturday, observed Friday July 3.
	observed, ok := byName["Independence Day (Observed)"]
	require.True(t, ok)
	assert.Equal(t, "2026-07-03", observed.Date.String())
	assert.True(t, observed.Observed)

	// Christmas 2026 is a Friday; no observed entry.
	_, ok = byName["Christmas Day (Observed)"]
	assert.False(t, ok)
}

func TestLoadRulesRejectsBadRule(t *testing.T) {
	_, err := LoadRules([]byte("region: X\nholidays:\n  - name: Odd\n    month: 3\n    weekday: funday\n    nth: 1\n"))
	assert.Error(t, err)

	_, err = LoadRules([]byte("region: X\nholidays:\n  - name: Bad\n    month: 13\n    day: 1\n"))
	assert.Error(t, err)
}
