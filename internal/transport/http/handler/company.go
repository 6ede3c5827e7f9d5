package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/domain"
)

const postField = "post"

// CompanyHandler serves campaign settings: links, discount and post tags.
type CompanyHandler struct {
	companies      company.Service
	maxUploadBytes int64
}

func NewCompanyHandler(companies company.Service, maxUploadBytes int64) *CompanyHandler {
	return &CompanyHandler{companies: companies, maxUploadBytes: maxUploadBytes}
}

type postTagsRequest struct {
	Hashtags []string `json:"hashtags"`
}

// GetLinks is public; the company is named by the company_name query parameter.
func (h *CompanyHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	companyName := strings.TrimSpace(r.URL.Query().Get("company_name"))
	if companyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}
	links, err := h.companies.Links(r.Context(), companyName, pathParam(r, "step_name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *CompanyHandler) PutLink(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.UpdateLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	link, err := h.companies.PutLink(r.Context(), p.Email, pathParam(r, "step_name"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *CompanyHandler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	d, err := h.companies.Discount(r.Context(), p.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *CompanyHandler) PutDiscount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.Discount
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.companies.SetDiscount(r.Context(), p.Email, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *CompanyHandler) GetPostTags(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tags, err := h.companies.PostTags(r.Context(), p.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// PutPostTags takes JSON {hashtags} or a multipart form with a "hashtags"
// JSON field and an optional "post" image.
func (h *CompanyHandler) PutPostTags(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var (
		req  postTagsRequest
		post *media.File
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()
		if raw := r.FormValue("hashtags"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Hashtags); err != nil {
				writeError(w, http.StatusBadRequest, "invalid hashtags field")
				return
			}
		}
		files, closeFiles, err := openFiles(r.MultipartForm)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file part")
			return
		}
		defer closeFiles()
		for i := range files {
			if files[i].Category == postField {
				post = &files[i]
				break
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tags, err := h.companies.SetPostTags(r.Context(), p.Email, req.Hashtags, post)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}
