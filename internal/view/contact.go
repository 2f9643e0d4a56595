package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonathan/portfolio-site/internal/apiclient"
	"github.com/jonathan/portfolio-site/internal/types"
)

// Field identifies an editable contact form field.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldCompany Field = "company"
	FieldMessage Field = "message"
)

// TokenField is the hidden form field carrying the form's one-time token.
const TokenField = "form_token"

// Display messages.
const (
	MsgMissingFields = "Please fill in all required fields."
	msgSubmitted     = "Thank you for your message!"
	msgSubmitFailed  = "There was an error submitting your message. Please try again later."
)

var (
	// ErrSubmitInProgress is returned when Submit is called while a submission is in flight.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrMissingFields is returned when a required field is blank.
	ErrMissingFields = errors.New("required fields are missing")
)

// ContactSubmitter sends a contact submission.
type ContactSubmitter interface {
	SubmitContactForm(ctx context.Context, sub types.ContactSubmission) (*types.ContactResponse, error)
}

// ContactForm holds the contact form's field values and submission state.
type ContactForm struct {
	submitter ContactSubmitter
	token     string
	inFlight  atomic.Bool

	mu     sync.Mutex
	fields types.ContactSubmission
	state  SubmitState
	notice string
}

// NewContactForm creates an empty, idle form with a fresh token.
func NewContactForm(submitter ContactSubmitter) *ContactForm {
	return &ContactForm{submitter: submitter, token: uuid.NewString()}
}

// Token identifies this rendering of the form. A browser that posts the same
// token twice is resubmitting one message.
func (f *ContactForm) Token() string {
	return f.token
}

// SetField updates one field.
func (f *ContactForm) SetField(field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldName:
		f.fields.Name = value
	case FieldEmail:
		f.fields.Email = value
	case FieldCompany:
		f.fields.Company = value
	case FieldMessage:
		f.fields.Message = value
	default:
		return fmt.Errorf("unknown contact field: %s", field)
	}
	return nil
}

// Fill replaces every field at once.
func (f *ContactForm) Fill(sub types.ContactSubmission) {
	f.mu.Lock()
	f.fields = sub
	f.mu.Unlock()
}

// Values returns the current field values.
func (f *ContactForm) Values() types.ContactSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// State returns the submission state.
func (f *ContactForm) State() SubmitState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CanSubmit reports whether the submit trigger is enabled.
func (f *ContactForm) CanSubmit() bool {
	return !f.inFlight.Load()
}

// Notice returns the current confirmation or error message and whether it is an error.
func (f *ContactForm) Notice() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice, f.state == SubmitFailed
}

// Dismiss clears the notice and returns the form to idle. Field values are kept.
func (f *ContactForm) Dismiss() {
	if f.inFlight.Load() {
		return
	}
	f.mu.Lock()
	f.notice = ""
	f.state = SubmitIdle
	f.mu.Unlock()
}

// Submit sends the current values. Only one submission may be in flight; a
// concurrent call returns ErrSubmitInProgress without sending anything.
// On success the fields are cleared; on failure they are preserved.
func (f *ContactForm) Submit(ctx context.Context) error {
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	defer f.inFlight.Store(false)

	f.mu.Lock()
	sub := f.fields
	if sub.MissingRequired() {
		f.state = SubmitFailed
		f.notice = MsgMissingFields
		f.mu.Unlock()
		return ErrMissingFields
	}
	f.state = SubmitSubmitting
	f.notice = ""
	f.mu.Unlock()

	resp, err := f.submitter.SubmitContactForm(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = SubmitFailed
		f.notice = submitFailureText(err)
		return err
	}
	f.state = SubmitSucceeded
	f.notice = msgSubmitted
	if resp != nil && resp.Message != "" {
		f.notice = resp.Message
	}
	f.fields = types.ContactSubmission{}
	return nil
}

// formData is the template view of the form.
type formData struct {
	Token       string
	Values      types.ContactSubmission
	State       string
	Notice      string
	NoticeError bool
	Disabled    bool
}

func (f *ContactForm) data() formData {
	disabled := !f.CanSubmit()
	f.mu.Lock()
	defer f.mu.Unlock()
	return formData{
		Token:       f.token,
		Values:      f.fields,
		State:       f.state.String(),
		Notice:      f.notice,
		NoticeError: f.state == SubmitFailed,
		Disabled:    disabled || f.state == SubmitSubmitting,
	}
}

func submitFailureText(err error) string {
	var se *apiclient.SubmitError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgSubmitFailed
}
