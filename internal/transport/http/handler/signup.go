package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/customer"
	"github.com/smart-referral-api/internal/application/signuptoken"
	"github.com/smart-referral-api/internal/domain"
)

// SignupHandler serves the customer invitation flow.
type SignupHandler struct {
	tokens        signuptoken.Service
	customers     customer.Service
	companies     company.Service
	signupPageURL string
}

func NewSignupHandler(tokens signuptoken.Service, customers customer.Service, companies company.Service, signupPageURL string) *SignupHandler {
	return &SignupHandler{tokens: tokens, customers: customers, companies: companies, signupPageURL: signupPageURL}
}

type inviteLinkResponse struct {
	Token string `json:"token"`
	Link  string `json:"link"`
}

type validateTokenResponse struct {
	Valid bool `json:"valid"`
}

// Redirect records the invite token on first visit and forwards the browser
// to the signup page with company and token in the query string.
func (h *SignupHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	companyName := pathParam(r, "company_name")
	tok := pathParam(r, "token")
	if companyName == "" || tok == "" {
		writeError(w, http.StatusBadRequest, "company name and token are required")
		return
	}
	if err := h.tokens.IssueIfAbsent(r.Context(), companyName, tok); err != nil {
		writeServiceError(w, r, err)
		return
	}
	target, err := url.Parse(h.signupPageURL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	q := target.Query()
	q.Set("company", companyName)
	q.Set("token", tok)
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// GenerateLink mints a fresh invite for the calling company.
func (h *SignupHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, err := h.companies.Get(r.Context(), p.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	tok, err := h.tokens.Generate(r.Context(), c.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteLinkResponse{
		Token: tok,
		Link:  "/api/signup/" + url.PathEscape(c.Name) + "/" + tok,
	})
}

// ValidateToken reports validity without consuming the token.
func (h *SignupHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, validateTokenResponse{Valid: h.tokens.Validate(r.Context(), req.CompanyName, req.Token)})
}

func (h *SignupHandler) CustomerSignup(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerSignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.customers.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Message: "customer registered", Email: u.Email})
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.TrimSpace(v)
}
