package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/smart-referral-api/internal/application/customer"
	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/application/referral"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/validate"
)

// SubmissionHandler serves customer-facing referral endpoints.
type SubmissionHandler struct {
	referrals      referral.Service
	customers      customer.Service
	maxUploadBytes int64
}

func NewSubmissionHandler(referrals referral.Service, customers customer.Service, maxUploadBytes int64) *SubmissionHandler {
	return &SubmissionHandler{referrals: referrals, customers: customers, maxUploadBytes: maxUploadBytes}
}

type termsRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type termsResponse struct {
	TermsAccepted bool `json:"terms_accepted"`
}

// Submit accepts either a JSON body {friends, score} or a multipart form
// whose "friends" field carries the same JSON array alongside media files.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var (
		req   domain.SubmitRequest
		files []media.File
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()
		if err := json.Unmarshal([]byte(r.FormValue("friends")), &req.Friends); err != nil {
			writeError(w, http.StatusBadRequest, "invalid friends field")
			return
		}
		if s := r.FormValue("score"); s != "" {
			score, err := strconv.Atoi(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid score field")
				return
			}
			req.Score = &score
		}
		opened, closeFiles, err := openFiles(r.MultipartForm, "friends", "score")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file part")
			return
		}
		defer closeFiles()
		files = opened
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.referrals.SubmitForm(r.Context(), p.Email, req.Friends, req.Score, files)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Upload stores a media batch against the caller's latest submission.
func (h *SubmissionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !isMultipart(r) {
		writeError(w, http.StatusBadRequest, "multipart form required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()
	files, closeFiles, err := openFiles(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file part")
		return
	}
	defer closeFiles()

	res, err := h.referrals.UploadMedia(r.Context(), p.Email, files)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if len(res.Files) == 0 && len(res.Errors) > 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (h *SubmissionHandler) TermsStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	accepted, err := h.customers.TermsAccepted(r.Context(), p.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, termsResponse{TermsAccepted: accepted})
}

func (h *SubmissionHandler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req termsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.customers.AcceptTerms(r.Context(), p.Email, *req.Accepted); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, termsResponse{TermsAccepted: *req.Accepted})
}
