package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"onehr/internal/domain/auth"
	"onehr/internal/transport/http/middleware"
)

type stubAuthenticator struct {
	session auth.Session
	err     error
	email   string
}

func (s *stubAuthenticator) Login(ctx context.Context, email, password string) (auth.Session, error) {
	s.email = email
	return s.session, s.err
}

func newRouter(svc Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth("test-secret"))
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestHandleLogin(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ok := &stubAuthenticator{session: auth.Session{
		Token:     "signed",
		ExpiresAt: expires,
		User:      auth.UserContext{UserID: "u-1", TenantID: "t-1", RoleID: "r-1", RoleName: auth.RoleHR},
	}}

	tests := []struct {
		name     string
		svc      *stubAuthenticator
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "success", svc: ok, body: `{"email":"hr@example.com","password":"secret"}`, wantCode: http.StatusOK},
		{name: "bad credentials", svc: &stubAuthenticator{err: auth.ErrInvalidCredentials}, body: `{"email":"hr@example.com","password":"nope"}`, wantCode: http.StatusUnauthorized, wantErr: "invalid_credentials"},
		{name: "missing password", svc: ok, body: `{"email":"hr@example.com"}`, wantCode: http.StatusBadRequest, wantErr: "invalid_payload"},
		{name: "unknown field", svc: ok, body: `{"email":"a","password":"b","mfa":"1"}`, wantCode: http.StatusBadRequest, wantErr: "invalid_payload"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			newRouter(tc.svc).ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			var body struct {
				Data struct {
					Token string `json:"token"`
					User  struct {
						Role string `json:"role"`
					} `json:"user"`
				} `json:"data"`
				Error *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if tc.wantErr != "" {
				if body.Error == nil || body.Error.Code != tc.wantErr {
					t.Fatalf("expected error %q, got %+v", tc.wantErr, body.Error)
				}
				return
			}
			if body.Data.Token != "signed" || body.Data.User.Role != auth.RoleHR {
				t.Fatalf("unexpected login payload: %+v", body.Data)
			}
		})
	}
}

func TestHandleMeRequiresToken(t *testing.T) {
	router := newRouter(&stubAuthenticator{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, err := auth.GenerateToken("test-secret", auth.Claims{UserID: "u-2", TenantID: "t-1", RoleName: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"u-2"`) || !strings.Contains(rec.Body.String(), auth.PermCalendarRead) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
