package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPlan   = "basic"
	defaultStatus = "active"
	dateLayout    = "2006-01-02"
)

// PostTags is the company's social post configuration.
type PostTags struct {
	Hashtags []string `json:"hashtags"`
	PostURL  string   `json:"post_image,omitempty"`
}

type Service interface {
	Signup(ctx context.Context, req domain.CompanySignupRequest) (*domain.Company, error)
	Get(ctx context.Context, email string) (*domain.Company, error)
	InitLinks(ctx context.Context, c *domain.Company) error
	Links(ctx context.Context, companyName, step string) ([]domain.ReferralLink, error)
	PutLink(ctx context.Context, companyEmail, step string, req domain.UpdateLinkRequest) (*domain.ReferralLink, error)
	Discount(ctx context.Context, email string) (*domain.Discount, error)
	SetDiscount(ctx context.Context, email string, d domain.Discount) (*domain.Discount, error)
	PostTags(ctx context.Context, email string) (*PostTags, error)
	SetPostTags(ctx context.Context, email string, hashtags []string, post *media.File) (*PostTags, error)
}

type companyStore interface {
	Create(ctx context.Context, c *domain.Company) error
	Get(ctx context.Context, email string) (*domain.Company, error)
	GetByName(ctx context.Context, name string) (*domain.Company, error)
	UpdateDiscount(ctx context.Context, email string, d domain.Discount) error
	UpdatePostTags(ctx context.Context, email string, hashtags []string, postImage string) error
}

type linkStore interface {
	Put(ctx context.Context, l domain.ReferralLink) error
	BatchPut(ctx context.Context, links []domain.ReferralLink) error
	ListByStep(ctx context.Context, companyName, step string) ([]domain.ReferralLink, error)
}

// userReader is the customers table; an email may own only one kind of account.
type userReader interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

type postStore interface {
	ReplacePost(ctx context.Context, owner string, f media.File) (string, error)
	PostURL(ctx context.Context, key string) (string, error)
}

type ServiceDeps struct {
	CompanyRepo companyStore
	LinkRepo    linkStore
	UserRepo    userReader
	Media       postStore
	Now         func() time.Time
}

type service struct {
	repo  companyStore
	links linkStore
	users userReader
	media postStore
	now   func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.CompanyRepo, links: deps.LinkRepo, users: deps.UserRepo, media: deps.Media, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Signup creates the company and seeds its referral links with the website URL.
// Company names must be unique after normalization since links are keyed by name.
func (s *service) Signup(ctx context.Context, req domain.CompanySignupRequest) (*domain.Company, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.Get(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("company name already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	plan := req.SubscriptionPlan
	if plan == "" {
		plan = defaultPlan
	}
	now := s.now().UTC()
	c := &domain.Company{
		Email:                 email,
		PasswordHash:          string(hash),
		Name:                  name,
		Phone:                 req.Phone,
		Website:               req.Website,
		SubscriptionPlan:      plan,
		SubscriptionStatus:    defaultStatus,
		SubscriptionStartDate: now.Format(dateLayout),
		Hashtags:              []string{},
		CreatedAt:             now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return nil, err
	}
	if err := s.InitLinks(ctx, c); err != nil {
		// the account exists; links can be set one by one afterwards
		slog.Error("seed referral links", "company", c.Name, "err", err)
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, email string) (*domain.Company, error) {
	return s.repo.Get(ctx, email)
}

// InitLinks writes one row per default step/platform, each pointing at the website.
func (s *service) InitLinks(ctx context.Context, c *domain.Company) error {
	now := s.now().UTC()
	links := make([]domain.ReferralLink, 0, len(domain.DefaultPlatforms))
	for _, p := range domain.DefaultPlatforms {
		links = append(links, domain.ReferralLink{
			CompanyName: c.Name,
			StepName:    p.Step,
			Platform:    p.Platform,
			Link:        c.Website,
			CreatedAt:   now,
		})
	}
	return s.links.BatchPut(ctx, links)
}

// Links lists the links of one step. companyName is matched after normalization.
func (s *service) Links(ctx context.Context, companyName, step string) ([]domain.ReferralLink, error) {
	if !domain.ValidStep(step) {
		return nil, fmt.Errorf("unknown step %q: %w", step, domain.ErrValidation)
	}
	if strings.TrimSpace(companyName) == "" {
		return nil, fmt.Errorf("company_name is required: %w", domain.ErrValidation)
	}
	c, err := s.repo.GetByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	return s.links.ListByStep(ctx, c.Name, step)
}

func (s *service) PutLink(ctx context.Context, companyEmail, step string, req domain.UpdateLinkRequest) (*domain.ReferralLink, error) {
	if !domain.ValidStep(step) {
		return nil, fmt.Errorf("unknown step %q: %w", step, domain.ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	c, err := s.repo.Get(ctx, companyEmail)
	if err != nil {
		return nil, err
	}
	l := domain.ReferralLink{
		CompanyName: c.Name,
		StepName:    step,
		Platform:    strings.ToLower(strings.TrimSpace(req.Platform)),
		Link:        req.Link,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.links.Put(ctx, l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *service) Discount(ctx context.Context, email string) (*domain.Discount, error) {
	c, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	return &c.Discount, nil
}

func (s *service) SetDiscount(ctx context.Context, email string, d domain.Discount) (*domain.Discount, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if err := s.repo.UpdateDiscount(ctx, email, d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *service) PostTags(ctx context.Context, email string) (*PostTags, error) {
	c, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	url, err := s.media.PostURL(ctx, c.PostImage)
	if err != nil {
		return nil, err
	}
	return &PostTags{Hashtags: domain.AddHashtags(nil, c.Hashtags...), PostURL: url}, nil
}

// SetPostTags replaces the hashtag list. When post is non-nil it becomes the
// single live post asset, replacing any earlier one.
func (s *service) SetPostTags(ctx context.Context, email string, hashtags []string, post *media.File) (*PostTags, error) {
	tags := domain.AddHashtags(nil, hashtags...)
	var key string
	if post != nil {
		k, err := s.media.ReplacePost(ctx, email, *post)
		if err != nil {
			return nil, err
		}
		key = k
	}
	if err := s.repo.UpdatePostTags(ctx, email, tags, key); err != nil {
		return nil, err
	}
	return s.PostTags(ctx, email)
}
