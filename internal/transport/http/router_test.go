package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campus-auth-api/internal/config"
	"github.com/campus-auth-api/internal/domain"
)

// --- mocks ---

type mockAccountRepo struct{ mock.Mock }

func (m *mockAccountRepo) PutNew(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountRepo) Get(ctx context.Context, email string, role domain.Role) (*domain.Account, error) {
	args := m.Called(ctx, email, role)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountRepo) MarkVerified(ctx context.Context, email string, role domain.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

type mockChallengeRepo struct{ mock.Mock }

func (m *mockChallengeRepo) Put(ctx context.Context, c *domain.OTPChallenge) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockChallengeRepo) Get(ctx context.Context, email string, role domain.Role) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, email, role)
	if c, _ := args.Get(0).(*domain.OTPChallenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockChallengeRepo) Delete(ctx context.Context, email string, role domain.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

type mockOutboxRepo struct{ mock.Mock }

func (m *mockOutboxRepo) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

// --- helpers ---

func testRouter(ar *mockAccountRepo, cr *mockChallengeRepo, or *mockOutboxRepo) http.Handler {
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, &Deps{
		AccountRepo:   ar,
		ChallengeRepo: cr,
		OutboxRepo:    or,
	})
}

func doJSON(t *testing.T, router http.Handler, method, target string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// --- route table tests ---

func TestRouter_SignupThroughFullStack(t *testing.T) {
	ar := &mockAccountRepo{}
	cr := &mockChallengeRepo{}
	or := &mockOutboxRepo{}
	ar.On("PutNew", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	cr.On("Put", mock.Anything, mock.AnythingOfType("*domain.OTPChallenge")).Return(nil)
	or.On("Enqueue", mock.Anything, mock.AnythingOfType("*domain.OutboxMessage")).Return(nil)

	router := testRouter(ar, cr, or)
	rr := doJSON(t, router, http.MethodPost, "/api/student/signup", domain.SignupRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.edu",
		Password: "correct horse battery",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	ar.AssertExpectations(t)
	cr.AssertExpectations(t)
	or.AssertExpectations(t)
}

func TestRouter_UnknownRoleSegment_NotFound(t *testing.T) {
	ar := &mockAccountRepo{}
	router := testRouter(ar, &mockChallengeRepo{}, &mockOutboxRepo{})

	rr := doJSON(t, router, http.MethodPost, "/api/admin/signup", domain.SignupRequest{
		Name:     "Eve",
		Email:    "eve@example.edu",
		Password: "pw",
	})

	assert.Equal(t, http.StatusNotFound, rr.Code)
	ar.AssertNotCalled(t, "PutNew", mock.Anything, mock.Anything)
}

func TestRouter_HealthCheckNotShadowedByRoleRoute(t *testing.T) {
	router := testRouter(&mockAccountRepo{}, &mockChallengeRepo{}, &mockOutboxRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/health-check/ping", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pong")
}

func TestRouter_UnknownOperation_NotFound(t *testing.T) {
	router := testRouter(&mockAccountRepo{}, &mockChallengeRepo{}, &mockOutboxRepo{})
	rr := doJSON(t, router, http.MethodPost, "/api/student/logout", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_LoginThroughFullStack(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	ar := &mockAccountRepo{}
	ar.On("Get", mock.Anything, "ada@example.edu", domain.RoleFaculty).Return(&domain.Account{
		Name:         "Ada Lovelace",
		Email:        "ada@example.edu",
		Role:         domain.RoleFaculty,
		PasswordHash: string(hash),
		Verified:     true,
	}, nil)

	router := testRouter(ar, &mockChallengeRepo{}, &mockOutboxRepo{})
	rr := doJSON(t, router, http.MethodPost, "/api/faculty/login", domain.LoginRequest{
		Email:    "ada@example.edu",
		Password: "correct horse battery",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Message string          `json:"message"`
		User    *domain.Profile `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.User)
	assert.Equal(t, "ada@example.edu", resp.User.Email)
	ar.AssertExpectations(t)
}
