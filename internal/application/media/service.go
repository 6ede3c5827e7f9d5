package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/metrics"
)

// File is one uploaded form file. Category is the raw form field name.
type File struct {
	Category    string
	Filename    string
	ContentType string
	Body        io.Reader
}

type objectStore interface {
	objectLookup
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// Service writes and lists media under the addressing scheme of this package.
type Service interface {
	StoreSubmissionFile(ctx context.Context, owner string, index int, f File) (*domain.FileResult, error)
	ReplacePost(ctx context.Context, owner string, f File) (string, error)
	ListSubmission(ctx context.Context, owner string, index int) (map[string][]domain.MediaItem, error)
	Resolve(ctx context.Context, token string) (string, bool)
	PostURL(ctx context.Context, key string) (string, error)
}

type ServiceDeps struct {
	Store      objectStore
	PresignTTL time.Duration
	Now        func() time.Time
}

type service struct {
	store    objectStore
	resolver *Resolver
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:    deps.Store,
		resolver: NewResolver(deps.Store, deps.PresignTTL),
		now:      now,
	}
}

// StoreSubmissionFile uploads f under {owner}/{index}/{category}/ with a generated name.
func (s *service) StoreSubmissionFile(ctx context.Context, owner string, index int, f File) (*domain.FileResult, error) {
	category := NormalizeCategory(f.Category)
	if category == "" {
		return nil, fmt.Errorf("file category is required: %w", domain.ErrValidation)
	}
	name, err := GenerateName(s.now().UTC())
	if err != nil {
		return nil, err
	}
	key := SubmissionKey(owner, index, category, name+Ext(f.Filename))
	if err := s.store.Upload(ctx, key, f.Body, f.ContentType); err != nil {
		metrics.RecordMediaUpload(category, false)
		return nil, err
	}
	metrics.RecordMediaUpload(category, true)
	return &domain.FileResult{Type: category, Name: f.Filename, Download: EncodeKey(key)}, nil
}

// ReplacePost removes any previous post asset of owner and stores f as post{ext}.
func (s *service) ReplacePost(ctx context.Context, owner string, f File) (string, error) {
	if err := s.store.DeletePrefix(ctx, PostPrefix(owner)); err != nil {
		return "", err
	}
	key := PostKey(owner, f.Filename)
	if err := s.store.Upload(ctx, key, f.Body, f.ContentType); err != nil {
		metrics.RecordMediaUpload(postSegment, false)
		return "", err
	}
	metrics.RecordMediaUpload(postSegment, true)
	return key, nil
}

// ListSubmission groups the objects of one submission by category, each with
// a presigned URL and a download token.
func (s *service) ListSubmission(ctx context.Context, owner string, index int) (map[string][]domain.MediaItem, error) {
	keys, err := s.store.List(ctx, SubmissionPrefix(owner, index))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.MediaItem)
	for _, key := range keys {
		category := CategoryOf(key)
		if category == "" {
			continue
		}
		url, token, err := s.resolver.Item(ctx, key)
		if err != nil {
			return nil, err
		}
		out[category] = append(out[category], domain.MediaItem{
			Name:     path.Base(key),
			URL:      url,
			Download: token,
		})
	}
	return out, nil
}

func (s *service) Resolve(ctx context.Context, token string) (string, bool) {
	return s.resolver.Resolve(ctx, token)
}

// PostURL presigns a stored post asset. An empty key yields an empty URL.
func (s *service) PostURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, _, err := s.resolver.Item(ctx, key)
	return url, err
}
