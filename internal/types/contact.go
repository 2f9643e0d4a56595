package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Contact submission defaults.
const (
	ContactSourceWebsite = "portfolio_website"
	ContactStatusNew     = "new"
)

// ContactSubmission is the body of POST /api/contact.
// The validate tags are enforced by the API server; clients only require the
// non-optional fields to be non-empty.
type ContactSubmission struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company,omitempty" validate:"max=100"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

// MissingRequired reports whether any required field is blank.
func (s ContactSubmission) MissingRequired() bool {
	return strings.TrimSpace(s.Name) == "" ||
		strings.TrimSpace(s.Email) == "" ||
		strings.TrimSpace(s.Message) == ""
}

// ContactRecord is a stored contact submission as returned by the admin listing.
type ContactRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	ClientHash string    `json:"clientHash,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

// ContactResponse is the body returned by POST /api/contact.
type ContactResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submissionId,omitempty"`
}

// ContactSubmissionList is the envelope of GET /api/contact/submissions.
type ContactSubmissionList struct {
	Submissions []ContactRecord `json:"submissions"`
	Count       int             `json:"count"`
}
