package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campus-auth-api/internal/domain"
	"github.com/campus-auth-api/internal/transport/http/middleware"
)

// --- mock ---

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Register(ctx context.Context, role domain.Role, req domain.SignupRequest) error {
	return m.Called(ctx, role, req).Error(0)
}
func (m *mockAccountSvc) VerifyOTP(ctx context.Context, role domain.Role, req domain.VerifyOTPRequest) error {
	return m.Called(ctx, role, req).Error(0)
}
func (m *mockAccountSvc) Login(ctx context.Context, role domain.Role, req domain.LoginRequest) (*domain.Profile, error) {
	args := m.Called(ctx, role, req)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func jsonReq(t *testing.T, target string, v interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
}

// withChiRole injects a chi URL param "role" into the request context.
func withChiRole(r *http.Request, role string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("role", role)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAs routes the request through RoleFromPath before the handler, the
// same way the router does.
func serveAs(role string, h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	middleware.RoleFromPath(h).ServeHTTP(w, withChiRole(r, role))
}

func validSignup() domain.SignupRequest {
	return domain.SignupRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.edu",
		Password: "correct horse battery",
	}
}

// --- Signup tests ---

func TestSignup_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	r := httptest.NewRequest(http.MethodPost, "/api/student/signup", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	serveAs("student", h.Signup, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_ValidationFailure(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	r := jsonReq(t, "/api/student/signup", domain.SignupRequest{Name: "Ada"}) // missing email and password
	rr := httptest.NewRecorder()
	serveAs("student", h.Signup, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_MalformedEmail(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	req := validSignup()
	req.Email = "not-an-email"
	r := jsonReq(t, "/api/student/signup", req)
	rr := httptest.NewRecorder()
	serveAs("student", h.Signup, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_UnknownRole_NotFound(t *testing.T) {
	svc := &mockAccountSvc{}
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/admin/signup", validSignup())
	rr := httptest.NewRecorder()
	serveAs("admin", h.Signup, rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_NoRoleInContext_NotFound(t *testing.T) {
	// Handler invoked without RoleFromPath in front of it.
	h := NewAccountHandler(&mockAccountSvc{})
	r := jsonReq(t, "/api/student/signup", validSignup())
	rr := httptest.NewRecorder()
	h.Signup(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignup_Conflict(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Register", mock.Anything, domain.RoleStudent, mock.Anything).
		Return(fmt.Errorf("account already exists: %w", domain.ErrConflict))
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/signup", validSignup())
	rr := httptest.NewRecorder()
	serveAs("student", h.Signup, rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestSignup_InternalError_DetailNotLeaked(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Register", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("dynamo: connection refused"))
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/signup", validSignup())
	rr := httptest.NewRecorder()
	serveAs("student", h.Signup, rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "dynamo")
}

func TestSignup_HappyPath(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Register", mock.Anything, domain.RoleFaculty, validSignup()).Return(nil)
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/faculty/signup", validSignup())
	rr := httptest.NewRecorder()
	serveAs("faculty", h.Signup, rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.Error)
	svc.AssertExpectations(t)
}

// --- VerifyOTP tests ---

func TestVerifyOTP_InvalidBody(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	r := httptest.NewRequest(http.MethodPost, "/api/student/verify-otp", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	serveAs("student", h.VerifyOTP, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyOTP_MissingOTP_ValidationFailure(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	r := jsonReq(t, "/api/student/verify-otp", domain.VerifyOTPRequest{Email: "ada@example.edu"})
	rr := httptest.NewRecorder()
	serveAs("student", h.VerifyOTP, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyOTP_WrongCode_BadRequest(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("VerifyOTP", mock.Anything, domain.RoleStudent, mock.Anything).
		Return(fmt.Errorf("invalid or expired code: %w", domain.ErrBadRequest))
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/verify-otp", domain.VerifyOTPRequest{Email: "ada@example.edu", OTP: "000000"})
	rr := httptest.NewRecorder()
	serveAs("student", h.VerifyOTP, rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "invalid or expired code")
}

func TestVerifyOTP_HappyPath(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("VerifyOTP", mock.Anything, domain.RoleStudent, domain.VerifyOTPRequest{
		Email: "ada@example.edu",
		OTP:   "654321",
	}).Return(nil)
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/verify-otp", domain.VerifyOTPRequest{Email: "ada@example.edu", OTP: "654321"})
	rr := httptest.NewRecorder()
	serveAs("student", h.VerifyOTP, rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

// --- Login tests ---

func TestLogin_ValidationFailure(t *testing.T) {
	h := NewAccountHandler(&mockAccountSvc{})
	r := jsonReq(t, "/api/student/login", domain.LoginRequest{Email: "ada@example.edu"}) // no password
	rr := httptest.NewRecorder()
	serveAs("student", h.Login, rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_BadCredentials_Unauthorized(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized))
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/login", domain.LoginRequest{Email: "ada@example.edu", Password: "wrong"})
	rr := httptest.NewRecorder()
	serveAs("student", h.Login, rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_Unverified_Forbidden(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("account not verified: %w", domain.ErrForbidden))
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/student/login", domain.LoginRequest{Email: "ada@example.edu", Password: "pw"})
	rr := httptest.NewRecorder()
	serveAs("student", h.Login, rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Login", mock.Anything, domain.RoleFaculty, domain.LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct horse battery",
	}).Return(&domain.Profile{Name: "Ada Lovelace", Email: "ada@example.edu"}, nil)
	h := NewAccountHandler(svc)
	r := jsonReq(t, "/api/faculty/login", domain.LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct horse battery",
	})
	rr := httptest.NewRecorder()
	serveAs("faculty", h.Login, rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	var resp LoginEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.NotNil(t, resp.User)
	assert.Equal(t, "Ada Lovelace", resp.User.Name)
	assert.Equal(t, "ada@example.edu", resp.User.Email)
	assert.NotContains(t, body, "password")
	svc.AssertExpectations(t)
}
