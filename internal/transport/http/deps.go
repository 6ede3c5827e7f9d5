package http

import (
	"context"

	"github.com/smart-referral-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/smart-referral-api/internal/infrastructure/jwt"
	s3infra "github.com/smart-referral-api/internal/infrastructure/s3"
)

// EventPublisher is the minimal interface the router requires from an event bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo        *dynamo.UserRepo
	CompanyRepo     *dynamo.CompanyRepo
	LinkRepo        *dynamo.LinkRepo
	ApprovalRepo    *dynamo.ApprovalRepo
	SignupTokenRepo *dynamo.SignupTokenRepo
	S3Store         *s3infra.Store
	// Events is optional; decisions are not published when nil.
	Events      EventPublisher
	JWTProvider *jwtinfra.Provider
}
