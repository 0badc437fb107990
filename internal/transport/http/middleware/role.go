package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campus-auth-api/internal/domain"
)

type contextKey string

const roleKey contextKey = "role"

// RoleFromPath validates the {role} URL segment and injects the parsed
// domain.Role into the request context. An unknown segment means the path
// doesn't exist as a route, so the answer is 404, not 400.
func RoleFromPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := domain.ParseRole(chi.URLParam(r, "role"))
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		ctx := context.WithValue(r.Context(), roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoleFromContext extracts the Role injected by RoleFromPath.
func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(roleKey).(domain.Role)
	return role, ok
}

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
