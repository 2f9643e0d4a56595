package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/portfolio-site/internal/types"
)

const (
	opSubmitContact    = "submit contact form"
	opFetchSubmissions = "fetch contact submissions"

	defaultSubmissionLimit = 50
)

// SubmitContactForm posts a contact submission. It never retries; the caller
// surfaces the SubmitError and lets the user resubmit.
func (c *Client) SubmitContactForm(ctx context.Context, sub types.ContactSubmission) (*types.ContactResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/contact", sub, false)
	if err != nil {
		c.logger.Printf("Error submitting contact form: %v", err)
		return nil, &SubmitError{Op: opSubmitContact, Message: failureMessage(nil, 0, err), Cause: err}
	}
	if !resp.ok() {
		msg := failureMessage(resp.body, resp.status, nil)
		c.logger.Printf("Error submitting contact form: %s", msg)
		return nil, &SubmitError{Op: opSubmitContact, Message: msg, StatusCode: resp.status}
	}

	var out types.ContactResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, &SubmitError{
			Op:         opSubmitContact,
			Message:    "invalid response body: " + err.Error(),
			StatusCode: resp.status,
			Cause:      err,
		}
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "submission was not accepted"
		}
		return nil, &SubmitError{Op: opSubmitContact, Message: msg, StatusCode: resp.status}
	}
	return &out, nil
}

// GetContactSubmissions lists the most recent submissions, newest first.
// A non-positive limit uses the server default of 50.
func (c *Client) GetContactSubmissions(ctx context.Context, limit int) ([]types.ContactRecord, error) {
	if limit <= 0 {
		limit = defaultSubmissionLimit
	}
	var out types.ContactSubmissionList
	if _, err := c.get(ctx, opFetchSubmissions, fmt.Sprintf("/contact/submissions?limit=%d", limit), true, &out); err != nil {
		return nil, err
	}
	if out.Submissions == nil {
		out.Submissions = []types.ContactRecord{}
	}
	return out.Submissions, nil
}
