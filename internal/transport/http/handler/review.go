package handler

import (
	"net/http"
	"strings"

	"github.com/smart-referral-api/internal/application/approval"
	"github.com/smart-referral-api/internal/application/referral"
	"github.com/smart-referral-api/internal/domain"
)

// ReviewHandler serves the company side of the submission review.
type ReviewHandler struct {
	approvals approval.Service
	referrals referral.Service
}

func NewReviewHandler(approvals approval.Service, referrals referral.Service) *ReviewHandler {
	return &ReviewHandler{approvals: approvals, referrals: referrals}
}

type approveResponse struct {
	Message  string              `json:"message"`
	Approval domain.ApprovalView `json:"approval"`
}

func (h *ReviewHandler) ApproveForm(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.ApproveFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.approvals.Decide(r.Context(), p.Email, strings.ToLower(req.Email), *req.FormNumber, *req.IsApproved, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approveResponse{Message: "decision recorded", Approval: domain.ViewApproval(a)})
}

// Clients lists every customer of the calling company with their submissions.
// company_email defaults to the caller and may not name another company.
func (h *ReviewHandler) Clients(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	companyEmail := strings.TrimSpace(r.URL.Query().Get("company_email"))
	if companyEmail == "" {
		companyEmail = p.Email
	}
	if !strings.EqualFold(companyEmail, p.Email) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	clients, err := h.referrals.AggregateClients(r.Context(), p.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}
