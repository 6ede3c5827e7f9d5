package domain

import "time"

// MediaItem is one uploaded object as seen by a reviewing company.
type MediaItem struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Download string `json:"download"` // opaque token for /media/download
}

// ApprovalView renders a FormApproval, or pending when none exists.
type ApprovalView struct {
	Status     string  `json:"status"` // pending | approved | rejected
	IsApproved *bool   `json:"is_approved"`
	Reason     *string `json:"reason,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// SubmissionView is one referral form of a customer.
type SubmissionView struct {
	FormNumber int                    `json:"form_number"`
	Friends    []Friend               `json:"friends"`
	Score      string                 `json:"score"`
	Approval   ApprovalView           `json:"approval"`
	Media      map[string][]MediaItem `json:"media"`
}

// ClientView aggregates a customer and all of their submissions.
type ClientView struct {
	Info UserInfo         `json:"info"`
	Data []SubmissionView `json:"data"`
}

// FileResult reports the outcome of one uploaded file.
type FileResult struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Download string `json:"download,omitempty"`
}

// FileError reports a file that could not be stored.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ViewApproval renders a decision; nil means pending.
func ViewApproval(a *FormApproval) ApprovalView {
	if a == nil {
		return ApprovalView{Status: "pending"}
	}
	approved := a.IsApproved
	reason := a.Reason
	status := "rejected"
	if approved {
		status = "approved"
	}
	return ApprovalView{
		Status:     status,
		IsApproved: &approved,
		Reason:     &reason,
		UpdatedAt:  a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
