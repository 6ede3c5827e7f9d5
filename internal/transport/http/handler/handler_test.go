package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/application/referral"
	"github.com/smart-referral-api/internal/application/session"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/transport/http/middleware"
)

const (
	companyEmail  = "owner@acme.test"
	customerEmail = "alice@mail.test"
)

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func as(req *http.Request, kind domain.PrincipalKind, email string) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), domain.Principal{Kind: kind, Email: email}))
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

// ── envelopes ───────────────────────────────────────────────────────────────

func TestWriteServiceError_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad", domain.ErrValidation), http.StatusUnprocessableEntity},
		{fmt.Errorf("user: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: taken", domain.ErrConflict), http.StatusConflict},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("dynamo: %w: boom", domain.ErrStorage), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.code, rr.Code, tc.err.Error())
	}
}

func TestWriteServiceError_HidesStorageDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	writeServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret table name"))
	var env MessageEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "internal error", env.Error)
}

// ── auth ────────────────────────────────────────────────────────────────────

func TestLogin_Company(t *testing.T) {
	sessions := new(mockSessionSvc)
	h := NewAuthHandler(new(mockCompanySvc), sessions)
	sessions.On("Login", mock.Anything, domain.LoginRequest{Email: companyEmail, Password: "secret123"}).
		Return(&session.LoginResult{Bearer: "tok", Principal: domain.Principal{Kind: domain.KindCompany, Email: companyEmail}}, nil)

	rr := httptest.NewRecorder()
	h.Login(rr, jsonReq(t, http.MethodPost, "/api/login", map[string]string{"email": companyEmail, "password": "secret123"}))

	require.Equal(t, http.StatusOK, rr.Code)
	var env AuthEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "tok", env.Token)
	assert.True(t, env.IsCompany)
	assert.Equal(t, companyEmail, env.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	sessions := new(mockSessionSvc)
	h := NewAuthHandler(new(mockCompanySvc), sessions)
	sessions.On("Login", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized))

	rr := httptest.NewRecorder()
	h.Login(rr, jsonReq(t, http.MethodPost, "/api/login", map[string]string{"email": companyEmail, "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_InvalidBody(t *testing.T) {
	h := NewAuthHandler(new(mockCompanySvc), new(mockSessionSvc))

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Login(rr, jsonReq(t, http.MethodPost, "/api/login", map[string]string{"email": "not-an-email"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCompanySignup_SignsIn(t *testing.T) {
	companies, sessions := new(mockCompanySvc), new(mockSessionSvc)
	h := NewAuthHandler(companies, sessions)
	req := domain.CompanySignupRequest{Name: "Acme", Email: companyEmail, Password: "secret123", Website: "https://acme.test"}
	companies.On("Signup", mock.Anything, req).Return(&domain.Company{Name: "Acme", Email: companyEmail}, nil)
	sessions.On("Login", mock.Anything, domain.LoginRequest{Email: companyEmail, Password: "secret123"}).
		Return(&session.LoginResult{Bearer: "tok", Principal: domain.Principal{Kind: domain.KindCompany, Email: companyEmail}}, nil)

	rr := httptest.NewRecorder()
	h.CompanySignup(rr, jsonReq(t, http.MethodPost, "/api/signup", req))

	require.Equal(t, http.StatusCreated, rr.Code)
	var env AuthEnvelope
	decode(t, rr, &env)
	assert.Equal(t, "tok", env.Token)
	assert.True(t, env.IsCompany)
}

func TestCompanySignup_Conflict(t *testing.T) {
	companies := new(mockCompanySvc)
	h := NewAuthHandler(companies, new(mockSessionSvc))
	companies.On("Signup", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: company name already registered", domain.ErrConflict))

	rr := httptest.NewRecorder()
	h.CompanySignup(rr, jsonReq(t, http.MethodPost, "/api/signup", domain.CompanySignupRequest{
		Name: "Acme", Email: companyEmail, Password: "secret123", Website: "https://acme.test",
	}))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCheckAuth(t *testing.T) {
	h := NewAuthHandler(new(mockCompanySvc), new(mockSessionSvc))

	rr := httptest.NewRecorder()
	h.CheckAuth(rr, httptest.NewRequest(http.MethodGet, "/api/check-auth", nil))
	var anon CheckAuthEnvelope
	decode(t, rr, &anon)
	assert.False(t, anon.Authenticated)

	rr = httptest.NewRecorder()
	h.CheckAuth(rr, as(httptest.NewRequest(http.MethodGet, "/api/check-auth", nil), domain.KindCustomer, customerEmail))
	var got CheckAuthEnvelope
	decode(t, rr, &got)
	assert.True(t, got.Authenticated)
	assert.False(t, got.IsCompany)
	assert.Equal(t, customerEmail, got.Email)
}

// ── signup links ────────────────────────────────────────────────────────────

func TestRedirect_IssuesAndRedirects(t *testing.T) {
	tokens := new(mockTokenSvc)
	h := NewSignupHandler(tokens, new(mockCustomerSvc), new(mockCompanySvc), "http://front.test/customer-signup")
	tokens.On("IssueIfAbsent", mock.Anything, "Acme Co", "abc123").Return(nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/signup/Acme%20Co/abc123", nil),
		"company_name", "Acme%20Co", "token", "abc123")
	rr := httptest.NewRecorder()
	h.Redirect(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "http://front.test/customer-signup?company=Acme+Co&token=abc123", rr.Header().Get("Location"))
	tokens.AssertExpectations(t)
}

func TestGenerateLink(t *testing.T) {
	tokens, companies := new(mockTokenSvc), new(mockCompanySvc)
	h := NewSignupHandler(tokens, new(mockCustomerSvc), companies, "http://front.test")
	companies.On("Get", mock.Anything, companyEmail).Return(&domain.Company{Name: "Acme", Email: companyEmail}, nil)
	tokens.On("Generate", mock.Anything, "Acme").Return("deadbeef", nil)

	rr := httptest.NewRecorder()
	h.GenerateLink(rr, as(httptest.NewRequest(http.MethodPost, "/api/signup-links", nil), domain.KindCompany, companyEmail))

	require.Equal(t, http.StatusCreated, rr.Code)
	var got inviteLinkResponse
	decode(t, rr, &got)
	assert.Equal(t, "deadbeef", got.Token)
	assert.Equal(t, "/api/signup/Acme/deadbeef", got.Link)
}

func TestValidateToken(t *testing.T) {
	tokens := new(mockTokenSvc)
	h := NewSignupHandler(tokens, new(mockCustomerSvc), new(mockCompanySvc), "")
	tokens.On("Validate", mock.Anything, "Acme", "abc").Return(true)

	rr := httptest.NewRecorder()
	h.ValidateToken(rr, jsonReq(t, http.MethodPost, "/api/validate-token", domain.ValidateTokenRequest{CompanyName: "Acme", Token: "abc"}))

	require.Equal(t, http.StatusOK, rr.Code)
	var got validateTokenResponse
	decode(t, rr, &got)
	assert.True(t, got.Valid)
}

func TestCustomerSignup_InvalidToken(t *testing.T) {
	customers := new(mockCustomerSvc)
	h := NewSignupHandler(new(mockTokenSvc), customers, new(mockCompanySvc), "")
	customers.On("Signup", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: invalid or expired token", domain.ErrValidation))

	rr := httptest.NewRecorder()
	h.CustomerSignup(rr, jsonReq(t, http.MethodPost, "/api/customer/signup", domain.CustomerSignupRequest{
		CompanyName: "Acme", Token: "abc", Name: "Alice", Email: customerEmail, Password: "secret123",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

// ── submissions ─────────────────────────────────────────────────────────────

func TestSubmit_JSON(t *testing.T) {
	referrals := new(mockReferralSvc)
	h := NewSubmissionHandler(referrals, new(mockCustomerSvc), 1<<20)
	friends := []domain.Friend{{Name: "Bob", Email: "bob@mail.test"}}
	referrals.On("SubmitForm", mock.Anything, customerEmail, friends, (*int)(nil), []media.File(nil)).
		Return(&referral.SubmitResult{FormNumber: 0, TotalReferrals: 1}, nil)

	rr := httptest.NewRecorder()
	h.Submit(rr, as(jsonReq(t, http.MethodPost, "/api/submit", map[string]interface{}{"friends": friends}), domain.KindCustomer, customerEmail))

	require.Equal(t, http.StatusCreated, rr.Code)
	var got referral.SubmitResult
	decode(t, rr, &got)
	assert.Equal(t, 1, got.TotalReferrals)
	referrals.AssertExpectations(t)
}

func TestSubmit_EmptyFriends(t *testing.T) {
	h := NewSubmissionHandler(new(mockReferralSvc), new(mockCustomerSvc), 1<<20)

	rr := httptest.NewRecorder()
	h.Submit(rr, as(jsonReq(t, http.MethodPost, "/api/submit", map[string]interface{}{"friends": []domain.Friend{}}), domain.KindCustomer, customerEmail))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSubmit_Multipart(t *testing.T) {
	referrals := new(mockReferralSvc)
	h := NewSubmissionHandler(referrals, new(mockCustomerSvc), 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("friends", `[{"name":"Bob","email":"bob@mail.test"}]`))
	require.NoError(t, mw.WriteField("score", "7"))
	part, err := mw.CreateFormFile("social_media[]", "a.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	referrals.On("SubmitForm", mock.Anything, customerEmail,
		[]domain.Friend{{Name: "Bob", Email: "bob@mail.test"}},
		mock.MatchedBy(func(s *int) bool { return s != nil && *s == 7 }),
		mock.MatchedBy(func(files []media.File) bool {
			return len(files) == 1 && files[0].Category == "social_media" && files[0].Filename == "a.png"
		}),
	).Return(&referral.SubmitResult{TotalReferrals: 1, Files: []domain.FileResult{{Type: "social", Name: "a.png"}}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.Submit(rr, as(req, domain.KindCustomer, customerEmail))

	assert.Equal(t, http.StatusCreated, rr.Code)
	referrals.AssertExpectations(t)
}

func TestUpload_RequiresMultipart(t *testing.T) {
	h := NewSubmissionHandler(new(mockReferralSvc), new(mockCustomerSvc), 1<<20)

	rr := httptest.NewRecorder()
	h.Upload(rr, as(jsonReq(t, http.MethodPost, "/api/upload", map[string]string{}), domain.KindCustomer, customerEmail))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAcceptTerms(t *testing.T) {
	customers := new(mockCustomerSvc)
	h := NewSubmissionHandler(new(mockReferralSvc), customers, 1<<20)
	customers.On("AcceptTerms", mock.Anything, customerEmail, true).Return(nil)

	rr := httptest.NewRecorder()
	h.AcceptTerms(rr, as(jsonReq(t, http.MethodPost, "/api/terms/accept", map[string]bool{"accepted": true}), domain.KindCustomer, customerEmail))

	require.Equal(t, http.StatusOK, rr.Code)
	var got termsResponse
	decode(t, rr, &got)
	assert.True(t, got.TermsAccepted)
}

// ── review ──────────────────────────────────────────────────────────────────

func TestApproveForm_Forbidden(t *testing.T) {
	approvals := new(mockApprovalSvc)
	h := NewReviewHandler(approvals, new(mockReferralSvc))
	approvals.On("Decide", mock.Anything, companyEmail, customerEmail, 0, true, "").
		Return(nil, fmt.Errorf("%w: customer belongs to another company", domain.ErrForbidden))

	rr := httptest.NewRecorder()
	h.ApproveForm(rr, as(jsonReq(t, http.MethodPost, "/api/approve-form", map[string]interface{}{
		"email": customerEmail, "formNumber": 0, "isApproved": true,
	}), domain.KindCompany, companyEmail))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestApproveForm_Rejected(t *testing.T) {
	approvals := new(mockApprovalSvc)
	h := NewReviewHandler(approvals, new(mockReferralSvc))
	approvals.On("Decide", mock.Anything, companyEmail, customerEmail, 1, false, "blurry").
		Return(&domain.FormApproval{UserEmail: customerEmail, FormIndex: 1, Reason: "blurry"}, nil)

	rr := httptest.NewRecorder()
	h.ApproveForm(rr, as(jsonReq(t, http.MethodPost, "/api/approve-form", map[string]interface{}{
		"email": customerEmail, "formNumber": 1, "isApproved": false, "reason": "blurry",
	}), domain.KindCompany, companyEmail))

	require.Equal(t, http.StatusOK, rr.Code)
	var got approveResponse
	decode(t, rr, &got)
	assert.Equal(t, "rejected", got.Approval.Status)
}

func TestClients_DefaultsToCaller(t *testing.T) {
	referrals := new(mockReferralSvc)
	h := NewReviewHandler(new(mockApprovalSvc), referrals)
	referrals.On("AggregateClients", mock.Anything, companyEmail).Return(map[string]domain.ClientView{
		customerEmail: {Info: domain.UserInfo{Email: customerEmail}},
	}, nil)

	rr := httptest.NewRecorder()
	h.Clients(rr, as(httptest.NewRequest(http.MethodGet, "/api/clients", nil), domain.KindCompany, companyEmail))

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]domain.ClientView
	decode(t, rr, &got)
	assert.Contains(t, got, customerEmail)
}

func TestClients_OtherCompanyForbidden(t *testing.T) {
	referrals := new(mockReferralSvc)
	h := NewReviewHandler(new(mockApprovalSvc), referrals)

	rr := httptest.NewRecorder()
	h.Clients(rr, as(httptest.NewRequest(http.MethodGet, "/api/clients?company_email=rival@other.test", nil), domain.KindCompany, companyEmail))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	referrals.AssertNotCalled(t, "AggregateClients", mock.Anything, mock.Anything)
}

// ── company settings ────────────────────────────────────────────────────────

func TestGetLinks_RequiresCompanyName(t *testing.T) {
	h := NewCompanyHandler(new(mockCompanySvc), 1<<20)

	rr := httptest.NewRecorder()
	h.GetLinks(rr, withURLParams(httptest.NewRequest(http.MethodGet, "/api/links/reviews", nil), "step_name", "reviews"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetLinks_StepWithSpace(t *testing.T) {
	companies := new(mockCompanySvc)
	h := NewCompanyHandler(companies, 1<<20)
	companies.On("Links", mock.Anything, "acme", domain.StepSocialMedia).Return([]domain.ReferralLink{
		{CompanyName: "Acme", StepName: domain.StepSocialMedia, Platform: "youtube", Link: "https://acme.test"},
	}, nil)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/links/social%20media?company_name=acme", nil), "step_name", "social%20media")
	rr := httptest.NewRecorder()
	h.GetLinks(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []domain.ReferralLink
	decode(t, rr, &got)
	assert.Len(t, got, 1)
}

func TestPutDiscount_Validation(t *testing.T) {
	h := NewCompanyHandler(new(mockCompanySvc), 1<<20)

	rr := httptest.NewRecorder()
	h.PutDiscount(rr, as(jsonReq(t, http.MethodPut, "/api/discount", map[string]interface{}{"limit": -1, "multiplier": 1.5}), domain.KindCompany, companyEmail))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPutPostTags_JSON(t *testing.T) {
	companies := new(mockCompanySvc)
	h := NewCompanyHandler(companies, 1<<20)
	companies.On("SetPostTags", mock.Anything, companyEmail, []string{"#acme", "#deal"}, (*media.File)(nil)).
		Return(&company.PostTags{Hashtags: []string{"#acme", "#deal"}}, nil)

	rr := httptest.NewRecorder()
	h.PutPostTags(rr, as(jsonReq(t, http.MethodPut, "/api/posttags", map[string]interface{}{"hashtags": []string{"#acme", "#deal"}}), domain.KindCompany, companyEmail))

	require.Equal(t, http.StatusOK, rr.Code)
	var got company.PostTags
	decode(t, rr, &got)
	assert.Equal(t, []string{"#acme", "#deal"}, got.Hashtags)
	companies.AssertExpectations(t)
}

func TestPutPostTags_MultipartPost(t *testing.T) {
	companies := new(mockCompanySvc)
	h := NewCompanyHandler(companies, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("hashtags", `["#acme"]`))
	part, err := mw.CreateFormFile("post", "banner.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	companies.On("SetPostTags", mock.Anything, companyEmail, []string{"#acme"},
		mock.MatchedBy(func(f *media.File) bool { return f != nil && f.Filename == "banner.jpg" }),
	).Return(&company.PostTags{Hashtags: []string{"#acme"}, PostURL: "https://s3.test/post"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/posttags", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.PutPostTags(rr, as(req, domain.KindCompany, companyEmail))

	assert.Equal(t, http.StatusOK, rr.Code)
	companies.AssertExpectations(t)
}

// ── media ───────────────────────────────────────────────────────────────────

func TestDownload(t *testing.T) {
	svc := new(mockMediaSvc)
	h := NewMediaHandler(svc)
	svc.On("Resolve", mock.Anything, "good").Return("https://s3.test/signed", true)
	svc.On("Resolve", mock.Anything, "gone").Return("", false)

	rr := httptest.NewRecorder()
	h.Download(rr, withURLParams(httptest.NewRequest(http.MethodGet, "/api/media/download/good", nil), "encoded_key", "good"))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://s3.test/signed", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	h.Download(rr, withURLParams(httptest.NewRequest(http.MethodGet, "/api/media/download/gone", nil), "encoded_key", "gone"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
