package server

import (
	"encoding/json"
	"errors"
	"html"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/portfolio-site/internal/types"
)

// Response messages.
const (
	msgHealthy         = "Portfolio API is running"
	msgContactReceived = "Thank you for your message! I'll get back to you within 24 hours."
	msgPageViewLogged  = "Page view logged"
	msgNoPortfolio     = "Portfolio data not found"
)

const (
	maxRequestBytes = 64 << 10
	maxPageLength   = 200
	maxListLimit    = 500
	maxSummaryDays  = 365
)

// Submission statuses accepted by the status update endpoint.
var submissionStatuses = map[string]bool{
	types.ContactStatusNew: true,
	"read":                 true,
	"replied":              true,
	"archived":             true,
}

// handleHealth returns GET /api/.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, types.HealthStatus{Message: msgHealthy, Status: "healthy"})
}

// handleGetPortfolio returns the stored snapshot.
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetPortfolio(r.Context())
	if err != nil {
		s.errorFromErr(w, "fetching portfolio", err)
		return
	}
	if snap == nil {
		s.errorResponse(w, http.StatusNotFound, msgNoPortfolio)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleSubmitContact validates, sanitises and stores a contact submission.
func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var sub types.ContactSubmission
	if err := decodeBody(r, &sub); err != nil {
		s.errorFromErr(w, "decoding contact form", err)
		return
	}

	sub.Name = s.clean(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Company = s.clean(sub.Company)
	sub.Message = s.clean(sub.Message)

	if err := s.validate.Struct(&sub); err != nil {
		s.errorFromErr(w, "validating contact form", validationError(err))
		return
	}

	rec := &types.ContactRecord{
		ID:         uuid.New(),
		Name:       sub.Name,
		Email:      sub.Email,
		Company:    sub.Company,
		Message:    sub.Message,
		Timestamp:  s.now(),
		Source:     types.ContactSourceWebsite,
		Status:     types.ContactStatusNew,
		ClientHash: s.hasher.Hash(s.clientIP(r)),
		UserAgent:  truncate(r.UserAgent(), 512),
	}
	if err := s.store.CreateContactSubmission(r.Context(), rec); err != nil {
		s.errorFromErr(w, "saving contact submission", err)
		return
	}

	log.Printf("Contact form submitted: %s", rec.ID)
	s.jsonResponse(w, http.StatusOK, types.ContactResponse{
		Success:      true,
		Message:      msgContactReceived,
		SubmissionID: rec.ID.String(),
	})
}

// handleListSubmissions returns recent submissions, newest first.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50, 1, maxListLimit)
	if err != nil {
		s.errorFromErr(w, "listing submissions", err)
		return
	}

	subs, err := s.store.ListContactSubmissions(r.Context(), limit)
	if err != nil {
		s.errorFromErr(w, "listing submissions", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.ContactSubmissionList{Submissions: subs, Count: len(subs)})
}

// handleUpdateSubmissionStatus sets a submission's status.
func (s *Server) handleUpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorFromErr(w, "updating submission", &ErrBadRequest{Message: "Invalid submission ID"})
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.errorFromErr(w, "updating submission", err)
		return
	}
	if !submissionStatuses[body.Status] {
		s.errorFromErr(w, "updating submission", &ErrValidation{Field: "status", Message: "must be one of new, read, replied, archived"})
		return
	}

	if err := s.store.UpdateSubmissionStatus(r.Context(), id, body.Status); err != nil {
		s.errorFromErr(w, "updating submission", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "status": body.Status})
}

// handleLogPageView stores a page view.
func (s *Server) handleLogPageView(w http.ResponseWriter, r *http.Request) {
	var event types.PageViewEvent
	if err := decodeBody(r, &event); err != nil {
		s.errorFromErr(w, "decoding page view", err)
		return
	}

	event.Page = s.clean(event.Page)
	if event.Page == "" || len(event.Page) > maxPageLength {
		s.errorFromErr(w, "logging page view", &ErrBadRequest{Message: "page is required and must be at most 200 characters"})
		return
	}

	view := &types.PageView{
		ID:         uuid.New(),
		Page:       event.Page,
		Referrer:   truncate(strings.TrimSpace(event.Referrer), 2048),
		Timestamp:  s.now(),
		ClientHash: s.hasher.Hash(s.clientIP(r)),
		UserAgent:  truncate(r.UserAgent(), 512),
	}
	if err := s.store.LogPageView(r.Context(), view); err != nil {
		s.errorFromErr(w, "logging page view", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, types.PageViewAck{Success: true, Message: msgPageViewLogged})
}

// handleAnalyticsSummary returns view and contact counts for the last N days.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30, 1, maxSummaryDays)
	if err != nil {
		s.errorFromErr(w, "summarising analytics", err)
		return
	}

	summary, err := s.store.AnalyticsSummary(r.Context(), days)
	if err != nil {
		s.errorFromErr(w, "summarising analytics", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, summary)
}

// clean strips markup and surrounding whitespace. The policy escapes what it
// keeps, so entities are decoded back to plain text for storage.
func (s *Server) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return &ErrBadRequest{Message: "Invalid request body"}
	}
	return nil
}

// queryInt reads an integer query parameter within [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, &ErrBadRequest{Message: name + " must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi)}
	}
	return n, nil
}

// validationError converts validator output into an ErrValidation for the
// first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ErrBadRequest{Message: "Invalid request body"}
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "field is required"
	case "email":
		msg = "must be a valid email address"
	case "min":
		msg = "must be at least " + fe.Param() + " characters"
	case "max":
		msg = "must be at most " + fe.Param() + " characters"
	default:
		msg = "is invalid"
	}
	return &ErrValidation{Field: field, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
