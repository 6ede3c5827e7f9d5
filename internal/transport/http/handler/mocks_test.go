package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/application/referral"
	"github.com/smart-referral-api/internal/application/session"
	"github.com/smart-referral-api/internal/domain"
)

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req domain.LoginRequest) (*session.LoginResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*session.LoginResult)
	return res, args.Error(1)
}

type mockCompanySvc struct{ mock.Mock }

func (m *mockCompanySvc) Signup(ctx context.Context, req domain.CompanySignupRequest) (*domain.Company, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*domain.Company)
	return c, args.Error(1)
}

func (m *mockCompanySvc) Get(ctx context.Context, email string) (*domain.Company, error) {
	args := m.Called(ctx, email)
	c, _ := args.Get(0).(*domain.Company)
	return c, args.Error(1)
}

func (m *mockCompanySvc) InitLinks(ctx context.Context, c *domain.Company) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCompanySvc) Links(ctx context.Context, companyName, step string) ([]domain.ReferralLink, error) {
	args := m.Called(ctx, companyName, step)
	links, _ := args.Get(0).([]domain.ReferralLink)
	return links, args.Error(1)
}

func (m *mockCompanySvc) PutLink(ctx context.Context, companyEmail, step string, req domain.UpdateLinkRequest) (*domain.ReferralLink, error) {
	args := m.Called(ctx, companyEmail, step, req)
	l, _ := args.Get(0).(*domain.ReferralLink)
	return l, args.Error(1)
}

func (m *mockCompanySvc) Discount(ctx context.Context, email string) (*domain.Discount, error) {
	args := m.Called(ctx, email)
	d, _ := args.Get(0).(*domain.Discount)
	return d, args.Error(1)
}

func (m *mockCompanySvc) SetDiscount(ctx context.Context, email string, d domain.Discount) (*domain.Discount, error) {
	args := m.Called(ctx, email, d)
	out, _ := args.Get(0).(*domain.Discount)
	return out, args.Error(1)
}

func (m *mockCompanySvc) PostTags(ctx context.Context, email string) (*company.PostTags, error) {
	args := m.Called(ctx, email)
	t, _ := args.Get(0).(*company.PostTags)
	return t, args.Error(1)
}

func (m *mockCompanySvc) SetPostTags(ctx context.Context, email string, hashtags []string, post *media.File) (*company.PostTags, error) {
	args := m.Called(ctx, email, hashtags, post)
	t, _ := args.Get(0).(*company.PostTags)
	return t, args.Error(1)
}

type mockTokenSvc struct{ mock.Mock }

func (m *mockTokenSvc) Issue(ctx context.Context, companyName, token string) error {
	return m.Called(ctx, companyName, token).Error(0)
}

func (m *mockTokenSvc) IssueIfAbsent(ctx context.Context, companyName, token string) error {
	return m.Called(ctx, companyName, token).Error(0)
}

func (m *mockTokenSvc) Generate(ctx context.Context, companyName string) (string, error) {
	args := m.Called(ctx, companyName)
	return args.String(0), args.Error(1)
}

func (m *mockTokenSvc) Exists(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenSvc) Validate(ctx context.Context, companyName, token string) bool {
	return m.Called(ctx, companyName, token).Bool(0)
}

func (m *mockTokenSvc) Consume(ctx context.Context, companyName, token string) bool {
	return m.Called(ctx, companyName, token).Bool(0)
}

func (m *mockTokenSvc) Remove(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockCustomerSvc struct{ mock.Mock }

func (m *mockCustomerSvc) Signup(ctx context.Context, req domain.CustomerSignupRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockCustomerSvc) Get(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockCustomerSvc) TermsAccepted(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerSvc) AcceptTerms(ctx context.Context, email string, accepted bool) error {
	return m.Called(ctx, email, accepted).Error(0)
}

type mockReferralSvc struct{ mock.Mock }

func (m *mockReferralSvc) Submit(ctx context.Context, email string, friends []domain.Friend) error {
	return m.Called(ctx, email, friends).Error(0)
}

func (m *mockReferralSvc) RecordOutcome(ctx context.Context, email string, score int) (int, error) {
	args := m.Called(ctx, email, score)
	return args.Int(0), args.Error(1)
}

func (m *mockReferralSvc) SubmitForm(ctx context.Context, email string, friends []domain.Friend, score *int, files []media.File) (*referral.SubmitResult, error) {
	args := m.Called(ctx, email, friends, score, files)
	res, _ := args.Get(0).(*referral.SubmitResult)
	return res, args.Error(1)
}

func (m *mockReferralSvc) UploadMedia(ctx context.Context, email string, files []media.File) (*referral.UploadResult, error) {
	args := m.Called(ctx, email, files)
	res, _ := args.Get(0).(*referral.UploadResult)
	return res, args.Error(1)
}

func (m *mockReferralSvc) AggregateClients(ctx context.Context, companyEmail string) (map[string]domain.ClientView, error) {
	args := m.Called(ctx, companyEmail)
	v, _ := args.Get(0).(map[string]domain.ClientView)
	return v, args.Error(1)
}

type mockApprovalSvc struct{ mock.Mock }

func (m *mockApprovalSvc) Decide(ctx context.Context, companyEmail, userEmail string, index int, isApproved bool, reason string) (*domain.FormApproval, error) {
	args := m.Called(ctx, companyEmail, userEmail, index, isApproved, reason)
	a, _ := args.Get(0).(*domain.FormApproval)
	return a, args.Error(1)
}

func (m *mockApprovalSvc) Status(ctx context.Context, userEmail string, index int) (*domain.FormApproval, error) {
	args := m.Called(ctx, userEmail, index)
	a, _ := args.Get(0).(*domain.FormApproval)
	return a, args.Error(1)
}

type mockMediaSvc struct{ mock.Mock }

func (m *mockMediaSvc) StoreSubmissionFile(ctx context.Context, owner string, index int, f media.File) (*domain.FileResult, error) {
	args := m.Called(ctx, owner, index, f)
	r, _ := args.Get(0).(*domain.FileResult)
	return r, args.Error(1)
}

func (m *mockMediaSvc) ReplacePost(ctx context.Context, owner string, f media.File) (string, error) {
	args := m.Called(ctx, owner, f)
	return args.String(0), args.Error(1)
}

func (m *mockMediaSvc) ListSubmission(ctx context.Context, owner string, index int) (map[string][]domain.MediaItem, error) {
	args := m.Called(ctx, owner, index)
	v, _ := args.Get(0).(map[string][]domain.MediaItem)
	return v, args.Error(1)
}

func (m *mockMediaSvc) Resolve(ctx context.Context, token string) (string, bool) {
	args := m.Called(ctx, token)
	return args.String(0), args.Bool(1)
}

func (m *mockMediaSvc) PostURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
