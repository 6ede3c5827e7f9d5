package domain

import "time"

// SignupToken is a single-use invitation letting a customer register under a company.
type SignupToken struct {
	Token       string    `json:"token"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	Used        bool      `json:"used"`
}

// Expired reports whether more than ttl has elapsed since creation.
// Exactly ttl is still valid.
func (t *SignupToken) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) > ttl
}

type ValidateTokenRequest struct {
	CompanyName string `json:"company_name" validate:"required"`
	Token       string `json:"token" validate:"required"`
}
