package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/metrics"
	"github.com/smart-referral-api/internal/pkg/validate"
)

// SubmitResult reports a stored form and the outcome of each attached file.
type SubmitResult struct {
	FormNumber     int                 `json:"form_number"`
	TotalReferrals int                 `json:"total_referrals"`
	Files          []domain.FileResult `json:"files"`
	Errors         []domain.FileError  `json:"errors,omitempty"`
}

// UploadResult reports a standalone media batch.
type UploadResult struct {
	FormNumber int                 `json:"form_number"`
	Files      []domain.FileResult `json:"files"`
	Errors     []domain.FileError  `json:"errors,omitempty"`
}

// Service appends referral submissions and builds the company review view.
//
// A submission is written in a fixed order: friends group, then counter and
// score, then media under the index derived from the fresh counter. The
// steps are not transactional, so two concurrent submissions by the same
// customer can leave friends[i], referrals_score[i] and {email}/{i}/ pointing
// at different forms. Submissions by different customers never interfere.
type Service interface {
	Submit(ctx context.Context, email string, friends []domain.Friend) error
	RecordOutcome(ctx context.Context, email string, score int) (int, error)
	SubmitForm(ctx context.Context, email string, friends []domain.Friend, score *int, files []media.File) (*SubmitResult, error)
	UploadMedia(ctx context.Context, email string, files []media.File) (*UploadResult, error)
	AggregateClients(ctx context.Context, companyEmail string) (map[string]domain.ClientView, error)
}

type userStore interface {
	AppendFriends(ctx context.Context, email string, group []domain.Friend) (int, error)
	RecordOutcome(ctx context.Context, email string, score int) (int, error)
	GetTotalReferrals(ctx context.Context, email string) (int, error)
	ListByCompany(ctx context.Context, companyEmail string) ([]domain.User, error)
}

type approvalReader interface {
	Status(ctx context.Context, userEmail string, index int) (*domain.FormApproval, error)
}

type mediaStore interface {
	StoreSubmissionFile(ctx context.Context, owner string, index int, f media.File) (*domain.FileResult, error)
	ListSubmission(ctx context.Context, owner string, index int) (map[string][]domain.MediaItem, error)
}

type ServiceDeps struct {
	UserRepo  userStore
	Approvals approvalReader
	Media     mediaStore
}

type service struct {
	users     userStore
	approvals approvalReader
	media     mediaStore
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, approvals: deps.Approvals, media: deps.Media}
}

// Submit validates friends and appends them as one new group.
func (s *service) Submit(ctx context.Context, email string, friends []domain.Friend) error {
	if err := validate.Struct(domain.SubmitRequest{Friends: friends}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	_, err := s.users.AppendFriends(ctx, email, friends)
	return err
}

// RecordOutcome increments total_referrals, appends score and returns the new total.
func (s *service) RecordOutcome(ctx context.Context, email string, score int) (int, error) {
	if score < 0 {
		return 0, fmt.Errorf("score must not be negative: %w", domain.ErrValidation)
	}
	return s.users.RecordOutcome(ctx, email, score)
}

// SubmitForm runs the full pipeline. File failures are reported per file and
// do not fail the call once the form itself is stored. A nil score defaults
// to the number of referred friends.
func (s *service) SubmitForm(ctx context.Context, email string, friends []domain.Friend, score *int, files []media.File) (*SubmitResult, error) {
	sc := len(friends)
	if score != nil {
		sc = *score
	}
	if sc < 0 {
		return nil, fmt.Errorf("score must not be negative: %w", domain.ErrValidation)
	}
	if err := s.Submit(ctx, email, friends); err != nil {
		metrics.RecordSubmission(false)
		return nil, err
	}
	total, err := s.RecordOutcome(ctx, email, sc)
	if err != nil {
		// friends is now one group ahead of the counter
		slog.Error("record outcome after friends append", "user", email, "err", err)
		metrics.RecordSubmission(false)
		return nil, err
	}
	metrics.RecordSubmission(true)

	index := total - 1
	stored, errs := s.storeFiles(ctx, email, index, files)
	return &SubmitResult{
		FormNumber:     index,
		TotalReferrals: total,
		Files:          stored,
		Errors:         errs,
	}, nil
}

// UploadMedia attaches files to the latest submission. The counter read is
// non-essential: a storage failure falls back to index 0.
func (s *service) UploadMedia(ctx context.Context, email string, files []media.File) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files provided: %w", domain.ErrValidation)
	}
	total, err := s.users.GetTotalReferrals(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, err
	case err != nil:
		slog.Warn("total referrals unavailable, using index 0", "user", email, "err", err)
		total = 0
	}
	index := max(total-1, 0)
	stored, errs := s.storeFiles(ctx, email, index, files)
	return &UploadResult{FormNumber: index, Files: stored, Errors: errs}, nil
}

func (s *service) storeFiles(ctx context.Context, email string, index int, files []media.File) ([]domain.FileResult, []domain.FileError) {
	stored := make([]domain.FileResult, 0, len(files))
	var errs []domain.FileError
	for _, f := range files {
		res, err := s.media.StoreSubmissionFile(ctx, email, index, f)
		if err != nil {
			slog.Error("store submission file", "user", email, "form", index, "file", f.Filename, "err", err)
			msg := "upload failed"
			if errors.Is(err, domain.ErrValidation) {
				msg = "invalid file"
			}
			errs = append(errs, domain.FileError{File: f.Filename, Error: msg})
			continue
		}
		stored = append(stored, *res)
	}
	return stored, errs
}

// AggregateClients joins every customer of companyEmail with their
// submissions, decisions and media.
func (s *service) AggregateClients(ctx context.Context, companyEmail string) (map[string]domain.ClientView, error) {
	users, err := s.users.ListByCompany(ctx, companyEmail)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.ClientView, len(users))
	for i := range users {
		u := &users[i]
		if !u.Aligned() {
			slog.Warn("submission arrays out of step", "user", u.Email,
				"total", u.TotalReferrals, "friends", len(u.Friends), "scores", len(u.ReferralsScore))
		}
		data := make([]domain.SubmissionView, 0, u.TotalReferrals)
		for idx := 0; idx < u.TotalReferrals; idx++ {
			view, err := s.submissionView(ctx, u, idx)
			if err != nil {
				return nil, err
			}
			data = append(data, *view)
		}
		out[u.Email] = domain.ClientView{Info: u.Info(), Data: data}
	}
	return out, nil
}

func (s *service) submissionView(ctx context.Context, u *domain.User, idx int) (*domain.SubmissionView, error) {
	view := &domain.SubmissionView{FormNumber: idx, Friends: []domain.Friend{}}
	if idx < len(u.Friends) {
		view.Friends = u.Friends[idx]
	}
	if idx < len(u.ReferralsScore) {
		view.Score = strconv.Itoa(u.ReferralsScore[idx])
	}
	a, err := s.approvals.Status(ctx, u.Email, idx)
	if err != nil {
		return nil, err
	}
	view.Approval = domain.ViewApproval(a)
	mediaByCategory, err := s.media.ListSubmission(ctx, u.Email, idx)
	if err != nil {
		return nil, err
	}
	view.Media = mediaByCategory
	return view, nil
}
