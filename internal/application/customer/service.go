package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Signup(ctx context.Context, req domain.CustomerSignupRequest) (*domain.User, error)
	Get(ctx context.Context, email string) (*domain.User, error)
	TermsAccepted(ctx context.Context, email string) (bool, error)
	AcceptTerms(ctx context.Context, email string, accepted bool) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, email string) (*domain.User, error)
	SetTermsAccepted(ctx context.Context, email string, accepted bool) error
}

type companyReader interface {
	Get(ctx context.Context, email string) (*domain.Company, error)
	GetByName(ctx context.Context, name string) (*domain.Company, error)
}

type tokenConsumer interface {
	Validate(ctx context.Context, companyName, token string) bool
	Consume(ctx context.Context, companyName, token string) bool
	Remove(ctx context.Context, token string) error
}

type ServiceDeps struct {
	UserRepo    userStore
	CompanyRepo companyReader
	Tokens      tokenConsumer
	Now         func() time.Time
}

type service struct {
	users     userStore
	companies companyReader
	tokens    tokenConsumer
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{users: deps.UserRepo, companies: deps.CompanyRepo, tokens: deps.Tokens, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var errInvalidToken = fmt.Errorf("invalid or expired signup link: %w", domain.ErrValidation)

// Signup registers a customer under the company the token was issued for.
// The token is checked before any write, consumed, and deleted once the
// account exists. Rejections found before Consume leave the token usable; a
// storage failure in Create after Consume leaves it spent, and the company
// has to send a new invite.
func (s *service) Signup(ctx context.Context, req domain.CustomerSignupRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	c, err := s.companies.GetByName(ctx, req.CompanyName)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// login resolves companies first, so a shared email could never sign in as a customer
	if _, err := s.companies.Get(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !s.tokens.Validate(ctx, req.CompanyName, req.Token) {
		return nil, errInvalidToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if !s.tokens.Consume(ctx, req.CompanyName, req.Token) {
		return nil, errInvalidToken
	}

	u := &domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		Name:           strings.TrimSpace(req.Name),
		CompanyName:    c.Name,
		CompanyEmail:   c.Email,
		CreatedAt:      s.now().UTC(),
		TermsAccepted:  req.TermsAccepted,
		Friends:        [][]domain.Friend{},
		ReferralsScore: []int{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return nil, err
	}
	if err := s.tokens.Remove(ctx, req.Token); err != nil {
		slog.Warn("remove consumed signup token", "err", err)
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, email string) (*domain.User, error) {
	return s.users.Get(ctx, email)
}

func (s *service) TermsAccepted(ctx context.Context, email string) (bool, error) {
	u, err := s.users.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return u.TermsAccepted, nil
}

func (s *service) AcceptTerms(ctx context.Context, email string, accepted bool) error {
	return s.users.SetTermsAccepted(ctx, email, accepted)
}
