package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"onehr/internal/domain/audit"
	"onehr/internal/domain/auth"
	"onehr/internal/transport/http/middleware"
)

type fakeTrail struct {
	events []audit.Event
	filter audit.Filter
}

func (f *fakeTrail) Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeTrail) List(ctx context.Context, tenantID string, filter audit.Filter, limit, offset int) ([]audit.Event, error) {
	f.filter = filter
	return f.events, nil
}

func serve(h *Handler, user auth.UserContext, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestExportWritesCSV(t *testing.T) {
	trail := &fakeTrail{events: []audit.Event{{
		ID: "a-1", ActorID: "hr-1", Action: audit.ActionDelete, EntityType: audit.EntityHoliday, EntityID: "h-1",
		CreatedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}}}
	hr := auth.UserContext{UserID: "hr-1", TenantID: "t-1", RoleName: auth.RoleHR}

	rec := serve(NewHandler(trail, nil), hr, "/audit/events/export?entityType=holiday")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("csv parse failed: %v", err)
	}
	want := [][]string{
		{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"},
		{"a-1", "hr-1", "delete", "holiday", "h-1", "", "", "2025-06-01T09:30:00Z"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected csv (-want +got):\n%s", diff)
	}
	if trail.filter.EntityType != audit.EntityHoliday {
		t.Fatalf("filter not applied: %+v", trail.filter)
	}
}

func TestAuditRequiresPermission(t *testing.T) {
	manager := auth.UserContext{UserID: "m-1", TenantID: "t-1", RoleName: auth.RoleManager}
	rec := serve(NewHandler(&fakeTrail{}, nil), manager, "/audit/events")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
