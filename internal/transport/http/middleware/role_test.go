package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-auth-api/internal/domain"
)

// withChiRole injects a chi URL param "role" into the request context.
func withChiRole(r *http.Request, role string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("role", role)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestRoleFromPath_StudentAndFaculty_Injected(t *testing.T) {
	for _, want := range []domain.Role{domain.RoleStudent, domain.RoleFaculty} {
		var got domain.Role
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			require.True(t, ok)
			got = role
			w.WriteHeader(http.StatusOK)
		})

		req := withChiRole(httptest.NewRequest(http.MethodPost, "/api/"+want.String()+"/login", nil), want.String())
		rr := httptest.NewRecorder()
		RoleFromPath(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, want, got)
	}
}

func TestRoleFromPath_UnknownRole_NotFound(t *testing.T) {
	var called bool
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := withChiRole(httptest.NewRequest(http.MethodPost, "/api/admin/login", nil), "admin")
	rr := httptest.NewRecorder()
	RoleFromPath(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, called, "handler must not run for unknown roles")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRoleFromPath_MissingSegment_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api//login", nil)
	rr := httptest.NewRecorder()
	RoleFromPath(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoleFromContext_EmptyContext(t *testing.T) {
	_, ok := RoleFromContext(context.Background())
	assert.False(t, ok)
}
