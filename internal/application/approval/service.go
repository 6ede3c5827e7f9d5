package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/metrics"
)

// EventFormDecided is published after every stored decision.
const EventFormDecided = "form.decided"

// Service records approve/reject decisions. PENDING is the absence of a record
// and every decision overwrites the previous one.
type Service interface {
	Decide(ctx context.Context, companyEmail, userEmail string, index int, isApproved bool, reason string) (*domain.FormApproval, error)
	Status(ctx context.Context, userEmail string, index int) (*domain.FormApproval, error)
}

type approvalStore interface {
	Put(ctx context.Context, a *domain.FormApproval) error
	Get(ctx context.Context, email string, index int) (*domain.FormApproval, error)
}

type userReader interface {
	Get(ctx context.Context, email string) (*domain.User, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type ServiceDeps struct {
	ApprovalRepo approvalStore
	UserRepo     userReader
	// Events is optional.
	Events eventPublisher
	Now    func() time.Time
}

type service struct {
	repo   approvalStore
	users  userReader
	events eventPublisher
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:   deps.ApprovalRepo,
		users:  deps.UserRepo,
		events: deps.Events,
		now:    deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type decidedEvent struct {
	CompanyEmail string `json:"company_email"`
	UserEmail    string `json:"user_email"`
	FormIndex    int    `json:"form_index"`
	IsApproved   bool   `json:"is_approved"`
	Reason       string `json:"reason"`
	Score        *int   `json:"score,omitempty"`
}

func (s *service) Decide(ctx context.Context, companyEmail, userEmail string, index int, isApproved bool, reason string) (*domain.FormApproval, error) {
	reason = strings.TrimSpace(reason)
	if !isApproved && reason == "" {
		return nil, fmt.Errorf("reason is required when rejecting: %w", domain.ErrValidation)
	}
	if index < 0 {
		return nil, fmt.Errorf("form number must not be negative: %w", domain.ErrValidation)
	}
	u, err := s.users.Get(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(u.CompanyEmail, companyEmail) {
		return nil, fmt.Errorf("customer belongs to another company: %w", domain.ErrForbidden)
	}
	if index >= u.TotalReferrals {
		return nil, fmt.Errorf("form %d does not exist: %w", index, domain.ErrValidation)
	}

	a := &domain.FormApproval{
		UserEmail:  userEmail,
		FormIndex:  index,
		IsApproved: isApproved,
		Reason:     reason,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	metrics.RecordDecision(isApproved)
	s.publish(ctx, companyEmail, u, a)
	return a, nil
}

// Status returns nil, nil for a submission that has no decision yet.
func (s *service) Status(ctx context.Context, userEmail string, index int) (*domain.FormApproval, error) {
	a, err := s.repo.Get(ctx, userEmail, index)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// publish failures are logged only; the decision is already stored.
func (s *service) publish(ctx context.Context, companyEmail string, u *domain.User, a *domain.FormApproval) {
	if s.events == nil {
		return
	}
	ev := decidedEvent{
		CompanyEmail: companyEmail,
		UserEmail:    a.UserEmail,
		FormIndex:    a.FormIndex,
		IsApproved:   a.IsApproved,
		Reason:       a.Reason,
	}
	if a.FormIndex < len(u.ReferralsScore) {
		score := u.ReferralsScore[a.FormIndex]
		ev.Score = &score
	}
	if err := s.events.Publish(ctx, EventFormDecided, ev); err != nil {
		slog.Error("publish decision event", "user", a.UserEmail, "form", a.FormIndex, "err", err)
	}
}
