package domain

import (
	"strings"
	"time"
)

type Discount struct {
	Limit      int     `json:"limit" validate:"min=0"`
	Multiplier float64 `json:"multiplier" validate:"gte=0"`
}

// Company is a tenant that invites customers and reviews their submissions.
type Company struct {
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	Name                  string    `json:"name"`
	Phone                 string    `json:"phone"`
	Website               string    `json:"website"`
	SubscriptionPlan      string    `json:"subscription_plan"`
	SubscriptionStatus    string    `json:"subscription_status"`
	SubscriptionStartDate string    `json:"subscription_start_date"`
	SubscriptionEndDate   string    `json:"subscription_end_date"`
	Discount              Discount  `json:"discount"`
	Hashtags              []string  `json:"hashtags"`
	PostImage             string    `json:"-"` // object key, never exposed raw
	CreatedAt             time.Time `json:"created_at"`
}

type CompanySignupRequest struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	Phone            string `json:"phone"`
	Website          string `json:"website" validate:"required,url"`
	SubscriptionPlan string `json:"subscription_plan"`
}

// NormalizeCompanyName folds case and treats hyphens as spaces so that
// "Acme-Corp" from a URL path matches a stored "acme corp".
func NormalizeCompanyName(name string) string {
	n := strings.ToLower(strings.ReplaceAll(name, "-", " "))
	return strings.Join(strings.Fields(n), " ")
}

// AddHashtags appends tags not already present, keeping first-seen order.
func AddHashtags(existing []string, tags ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(tags))
	for _, t := range append(append([]string{}, existing...), tags...) {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
