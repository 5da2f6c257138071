package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300, "requestId": "r"}
	if status < 300 {
		body["data"] = data
	} else {
		body["error"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/employees", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		envelope(w, http.StatusOK, map[string]any{"employees": []map[string]any{
			{"id": "e1", "firstName": "Maria", "lastName": "Lopez", "dateOfBirth": "1990-01-02", "startDate": "2020-03-15"},
		}})
	})
	mux.HandleFunc("GET /api/v1/hr-calendar/holidays", func(w http.ResponseWriter, r *http.Request) {
		var list []map[string]any
		if r.URL.Query().Get("year") == "2026" {
			list = append(list, map[string]any{"id": "h2", "name": "New Year's Day", "date": "2026-01-01"})
		}
		envelope(w, http.StatusOK, map[string]any{"holidays": list})
	})
	mux.HandleFunc("GET /api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	mux.HandleFunc("GET /api/v1/calendar-events", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, map[string]any{"events": []any{}, "occurrences": []any{}})
	})
	mux.HandleFunc("DELETE /api/v1/calendar-events/{id}", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusForbidden, map[string]any{"code": "read_only_event", "message": "read only"})
	})
	mux.HandleFunc("POST /api/v1/hr-calendar/initialize-us-holidays", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, map[string]any{"year": 2026, "inserted": 11, "skipped": 0})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{
		out:    &out,
		errOut: &errOut,
		getenv: func(key string) string {
			switch key {
			case "ONEHR_API_URL":
				return srv.URL + "/api/v1"
			case "ONEHR_TOKEN":
				return "tkn"
			}
			return ""
		},
		now: func() time.Time { return time.Date(2025, time.December, 29, 9, 0, 0, 0, time.Local) },
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestUpcomingCrossesYearEnd(t *testing.T) {
	srv := fakeAPI(t)

	out, errOut, err := runCLI(t, srv, "upcoming")
	require.NoError(t, err)
	assert.Contains(t, out, "Next 7 days")
	assert.Contains(t, out, "[holiday] New Year's Day")
	assert.Contains(t, out, "[birthday] Maria Lopez's Birthday")
	assert.Less(t, strings.Index(out, "New Year's Day"), strings.Index(out, "Birthday"))
	assert.Contains(t, errOut, "could not load notifications")
}

func TestUpcomingTypesFilter(t *testing.T) {
	srv := fakeAPI(t)

	out, _, err := runCLI(t, srv, "upcoming", "--types", "holiday,birthday", "--toggle", "holiday")
	require.NoError(t, err)
	assert.NotContains(t, out, "New Year's Day")
	assert.Contains(t, out, "Maria Lopez's Birthday")

	_, _, err = runCLI(t, srv, "upcoming", "--types", "parade")
	assert.ErrorContains(t, err, "unknown event type")
}

func TestMonthCommand(t *testing.T) {
	srv := fakeAPI(t)

	out, _, err := runCLI(t, srv, "month", "--year", "2026", "--month", "1", "--week-start", "monday")
	require.NoError(t, err)
	assert.Contains(t, out, "January 2026")
	assert.Contains(t, out, "Mon     Tue")
	assert.Contains(t, out, " 1H")
	assert.Contains(t, out, " 2B")
}

func TestEventsRemoveReadOnly(t *testing.T) {
	srv := fakeAPI(t)

	_, _, err := runCLI(t, srv, "events", "rm", "birthday-e1-2026")
	assert.ErrorContains(t, err, "generated automatically")
}

func TestHolidaysInit(t *testing.T) {
	srv := fakeAPI(t)

	out, _, err := runCLI(t, srv, "holidays", "init", "--year", "2026")
	require.NoError(t, err)
	assert.Equal(t, "2026: 11 added, 0 already present\n", out)
}
