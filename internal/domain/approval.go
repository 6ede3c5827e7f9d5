package domain

import (
	"fmt"
	"time"
)

// FormApproval is the latest decision on one submission. Absence means pending.
type FormApproval struct {
	UserEmail  string    `json:"email"`
	FormIndex  int       `json:"form_number"`
	IsApproved bool      `json:"is_approved"`
	Reason     string    `json:"reason"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ApprovalKey builds the store key {email}#form{index}.
func ApprovalKey(email string, index int) string {
	return fmt.Sprintf("%s#form%d", email, index)
}

type ApproveFormRequest struct {
	Email      string `json:"email" validate:"required,email"`
	FormNumber *int   `json:"formNumber" validate:"required,min=0"`
	IsApproved *bool  `json:"isApproved" validate:"required"`
	Reason     string `json:"reason"`
}
