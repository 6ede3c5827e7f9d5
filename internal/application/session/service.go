package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smart-referral-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

type LoginResult struct {
	Bearer    string
	Principal domain.Principal
}

// Service resolves credentials into a Principal. The companies table is
// consulted first; customers are only checked when no company owns the email.
type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
}

type companyReader interface {
	Get(ctx context.Context, email string) (*domain.Company, error)
}

type userReader interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

type jwtSigner interface {
	Sign(principal domain.Principal) (string, error)
}

type ServiceDeps struct {
	CompanyRepo companyReader
	UserRepo    userReader
	JWTProvider jwtSigner
}

type service struct {
	companies   companyReader
	users       userReader
	jwtProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		companies:   deps.CompanyRepo,
		users:       deps.UserRepo,
		jwtProvider: deps.JWTProvider,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	principal, hash, err := s.resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	bearer, err := s.jwtProvider.Sign(principal)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, Principal: principal}, nil
}

func (s *service) resolve(ctx context.Context, email string) (domain.Principal, string, error) {
	c, err := s.companies.Get(ctx, email)
	switch {
	case err == nil:
		return domain.Principal{Kind: domain.KindCompany, Email: c.Email}, c.PasswordHash, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Principal{}, "", err
	}
	u, err := s.users.Get(ctx, email)
	switch {
	case err == nil:
		return domain.Principal{Kind: domain.KindCustomer, Email: u.Email}, u.PasswordHash, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.Principal{}, "", errInvalidCredentials
	default:
		return domain.Principal{}, "", err
	}
}
