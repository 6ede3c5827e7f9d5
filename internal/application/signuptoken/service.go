package signuptoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/metrics"
	pkgtoken "github.com/smart-referral-api/internal/pkg/token"
)

// DefaultTTL is how long an issued token stays usable.
const DefaultTTL = 600 * time.Second

// Service manages the invitation token lifecycle:
// UNISSUED -> ISSUED -> EXPIRED | CONSUMED -> DELETED.
type Service interface {
	Issue(ctx context.Context, companyName, token string) error
	IssueIfAbsent(ctx context.Context, companyName, token string) error
	Generate(ctx context.Context, companyName string) (string, error)
	Exists(ctx context.Context, token string) (bool, error)
	Validate(ctx context.Context, companyName, token string) bool
	Consume(ctx context.Context, companyName, token string) bool
	Remove(ctx context.Context, token string) error
}

type tokenStore interface {
	Put(ctx context.Context, t *domain.SignupToken) error
	Get(ctx context.Context, token string) (*domain.SignupToken, error)
	MarkUsed(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
}

type ServiceDeps struct {
	TokenRepo tokenStore
	TTL       time.Duration
	Now       func() time.Time
}

type service struct {
	repo tokenStore
	ttl  time.Duration
	now  func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.TokenRepo, ttl: deps.TTL, now: deps.Now}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Issue creates an unused token for companyName. An existing token is not
// overwritten and yields ErrConflict.
func (s *service) Issue(ctx context.Context, companyName, token string) error {
	companyName = strings.TrimSpace(companyName)
	token = strings.TrimSpace(token)
	if companyName == "" || token == "" {
		return fmt.Errorf("company name and token are required: %w", domain.ErrValidation)
	}
	err := s.repo.Put(ctx, &domain.SignupToken{
		Token:       token,
		CompanyName: companyName,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return err
	}
	metrics.RecordTokenEvent("issued")
	return nil
}

// IssueIfAbsent issues token unless it already exists. Losing a concurrent
// issue race counts as already existing.
func (s *service) IssueIfAbsent(ctx context.Context, companyName, token string) error {
	exists, err := s.Exists(ctx, token)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.Issue(ctx, companyName, token); err != nil && !errors.Is(err, domain.ErrConflict) {
		return err
	}
	return nil
}

// Generate issues a fresh random token for companyName.
func (s *service) Generate(ctx context.Context, companyName string) (string, error) {
	tok, err := pkgtoken.NewSignupToken()
	if err != nil {
		return "", err
	}
	if err := s.Issue(ctx, companyName, tok); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *service) Exists(ctx context.Context, token string) (bool, error) {
	_, err := s.repo.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Validate has no side effects. Storage failures are logged and reported as invalid.
func (s *service) Validate(ctx context.Context, companyName, token string) bool {
	_, ok := s.check(ctx, companyName, token)
	return ok
}

// Consume re-validates and marks the token used. A failed validation or a
// lost race against another consumer leaves the record untouched.
func (s *service) Consume(ctx context.Context, companyName, token string) bool {
	if _, ok := s.check(ctx, companyName, token); !ok {
		metrics.RecordTokenEvent("rejected")
		return false
	}
	if err := s.repo.MarkUsed(ctx, token); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			slog.Error("mark signup token used", "err", err)
		}
		metrics.RecordTokenEvent("rejected")
		return false
	}
	metrics.RecordTokenEvent("consumed")
	return true
}

func (s *service) Remove(ctx context.Context, token string) error {
	if err := s.repo.Delete(ctx, token); err != nil {
		return err
	}
	metrics.RecordTokenEvent("removed")
	return nil
}

func (s *service) check(ctx context.Context, companyName, token string) (*domain.SignupToken, bool) {
	if strings.TrimSpace(companyName) == "" || strings.TrimSpace(token) == "" {
		return nil, false
	}
	t, err := s.repo.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("read signup token", "err", err)
		}
		return nil, false
	}
	switch {
	case domain.NormalizeCompanyName(t.CompanyName) != domain.NormalizeCompanyName(companyName):
		return nil, false
	case t.Used:
		return nil, false
	case t.Expired(s.now(), s.ttl):
		return nil, false
	}
	return t, true
}
