package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campus-auth-api/internal/application/account"
	"github.com/campus-auth-api/internal/domain"
	"github.com/campus-auth-api/internal/pkg/validate"
	"github.com/campus-auth-api/internal/transport/http/middleware"
)

// AccountHandler handles signup, verification and login endpoints. The role
// the account lives under comes from the {role} path segment, parsed and
// injected by middleware.RoleFromPath.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Register(r.Context(), role, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signup successful, verification code sent"})
}

func (h *AccountHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.VerifyOTP(r.Context(), role, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account verified"})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.svc.Login(r.Context(), role, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{Message: "login successful", User: profile})
}
