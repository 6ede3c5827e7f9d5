package domain

import "time"

// Friend is one referred contact inside a submission.
type Friend struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

// User is a customer account bound to exactly one company.
//
// Friends and ReferralsScore are parallel arrays indexed by submission; outside
// of an in-flight submission len(Friends) == len(ReferralsScore) == TotalReferrals.
type User struct {
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Name           string     `json:"name"`
	CompanyName    string     `json:"company_name"`
	CompanyEmail   string     `json:"company_email"`
	CreatedAt      time.Time  `json:"created_at"`
	TermsAccepted  bool       `json:"terms_accepted"`
	TotalReferrals int        `json:"total_referrals"`
	Friends        [][]Friend `json:"friends"`
	ReferralsScore []int      `json:"referrals_score"`
}

// Aligned reports whether the per-submission arrays agree with the counter.
func (u *User) Aligned() bool {
	return len(u.Friends) == u.TotalReferrals && len(u.ReferralsScore) == u.TotalReferrals
}

// UserInfo is the public projection of a customer shown to its company.
type UserInfo struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	CompanyName    string    `json:"company_name"`
	CreatedAt      time.Time `json:"created_at"`
	TermsAccepted  bool      `json:"terms_accepted"`
	TotalReferrals int       `json:"total_referrals"`
}

func (u *User) Info() UserInfo {
	return UserInfo{
		Email:          u.Email,
		Name:           u.Name,
		CompanyName:    u.CompanyName,
		CreatedAt:      u.CreatedAt,
		TermsAccepted:  u.TermsAccepted,
		TotalReferrals: u.TotalReferrals,
	}
}

type CustomerSignupRequest struct {
	CompanyName   string `json:"company_name" validate:"required"`
	Token         string `json:"token" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	TermsAccepted bool   `json:"terms_accepted"`
}

type SubmitRequest struct {
	Friends []Friend `json:"friends" validate:"required,min=1,dive"`
	Score   *int     `json:"score" validate:"omitempty,min=0"`
}
