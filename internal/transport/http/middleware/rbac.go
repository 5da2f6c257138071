package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"onehr/internal/domain/auth"
	"onehr/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission checks the caller's role against the tenant's
// role_permissions table. With a nil store the built-in role table is used.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			allowed := auth.Allowed(user.RoleName, permission)
			if store != nil {
				var err error
				allowed, err = store.HasPermission(r.Context(), user.RoleID, permission)
				if err != nil {
					slog.Warn("permission check failed", "permission", permission, "err", err)
					api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
					return
				}
			}
			if !allowed {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
