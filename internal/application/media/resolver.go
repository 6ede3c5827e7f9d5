package media

import (
	"context"
	"log/slog"
	"time"
)

type objectLookup interface {
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Resolver turns download tokens into time-limited URLs.
type Resolver struct {
	store objectLookup
	ttl   time.Duration
}

func NewResolver(store objectLookup, ttl time.Duration) *Resolver {
	return &Resolver{store: store, ttl: ttl}
}

// Resolve returns ok=false when the token does not decode or the object is gone.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, bool) {
	key, err := DecodeKey(token)
	if err != nil {
		return "", false
	}
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		slog.Error("media lookup failed", "err", err)
		return "", false
	}
	if !exists {
		return "", false
	}
	url, err := r.store.PresignedURL(ctx, key, r.ttl)
	if err != nil {
		slog.Error("media presign failed", "err", err)
		return "", false
	}
	return url, true
}

// Item builds the view of one stored object: a presigned URL plus its download token.
func (r *Resolver) Item(ctx context.Context, key string) (string, string, error) {
	url, err := r.store.PresignedURL(ctx, key, r.ttl)
	if err != nil {
		return "", "", err
	}
	return url, EncodeKey(key), nil
}
