package domain

import (
	"fmt"
	"time"
)

// Referral campaign steps.
const (
	StepReviews     = "reviews"
	StepSocialMedia = "social media"
	StepContent     = "content"
	StepTagging     = "tagging"
)

// ReferralLink is one per-platform URL for a campaign step of a company.
type ReferralLink struct {
	CompanyName string    `json:"company_name"`
	StepName    string    `json:"step_name"`
	Platform    string    `json:"platform"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

// ID is the composite key company_name#step_name#platform.
func (l ReferralLink) ID() string {
	return LinkID(l.CompanyName, l.StepName, l.Platform)
}

func LinkID(company, step, platform string) string {
	return fmt.Sprintf("%s#%s#%s", company, step, platform)
}

// ValidStep reports whether step is one of the four campaign steps.
func ValidStep(step string) bool {
	switch step {
	case StepReviews, StepSocialMedia, StepContent, StepTagging:
		return true
	}
	return false
}

// DefaultPlatforms lists the platforms seeded for every new company, by step.
var DefaultPlatforms = []struct {
	Step     string
	Platform string
}{
	{StepReviews, "yelp"},
	{StepReviews, "facebook"},
	{StepReviews, "sitejabber"},
	{StepSocialMedia, "linkedin"},
	{StepSocialMedia, "youtube"},
	{StepSocialMedia, "facebook"},
	{StepSocialMedia, "instagram"},
	{StepContent, "facebook"},
	{StepContent, "instagram"},
	{StepTagging, "facebook"},
	{StepTagging, "instagram"},
}

type UpdateLinkRequest struct {
	Platform string `json:"platform" validate:"required"`
	Link     string `json:"link" validate:"required,url"`
}
