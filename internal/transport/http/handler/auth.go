package handler

import (
	"net/http"

	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/session"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/transport/http/middleware"
)

type AuthHandler struct {
	companies company.Service
	sessions  session.Service
}

func NewAuthHandler(companies company.Service, sessions session.Service) *AuthHandler {
	return &AuthHandler{companies: companies, sessions: sessions}
}

// CompanySignup registers a company, seeds its referral links and signs it in.
func (h *AuthHandler) CompanySignup(w http.ResponseWriter, r *http.Request) {
	var req domain.CompanySignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.sessions.Login(r.Context(), domain.LoginRequest{Email: c.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Message:   "company registered",
		Email:     c.Email,
		Token:     res.Bearer,
		IsCompany: true,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.sessions.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Message:   "login successful",
		Email:     res.Principal.Email,
		Token:     res.Bearer,
		IsCompany: res.Principal.Kind == domain.KindCompany,
	})
}

// CheckAuth runs behind OptionalAuth and never fails.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, CheckAuthEnvelope{})
		return
	}
	writeJSON(w, http.StatusOK, CheckAuthEnvelope{
		Authenticated: true,
		Email:         p.Email,
		IsCompany:     p.Kind == domain.KindCompany,
	})
}

// Logout is an acknowledgement only; bearers are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
