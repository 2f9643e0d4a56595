package view

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jonathan/portfolio-site/internal/apiclient"
	"github.com/jonathan/portfolio-site/internal/types"
)

// Section names, in page order.
const (
	SectionHero       = "hero"
	SectionAbout      = "about"
	SectionSkills     = "skills"
	SectionExperience = "experience"
	SectionProjects   = "projects"
	SectionContact    = "contact"
	SectionFooter     = "footer"
)

// SectionNames lists every section in the order they appear on the page.
var SectionNames = []string{
	SectionHero,
	SectionAbout,
	SectionSkills,
	SectionExperience,
	SectionProjects,
	SectionContact,
	SectionFooter,
}

// defaultFailureMessage is shown when an error carries no text.
const defaultFailureMessage = "Failed to load portfolio data"

// PortfolioSource produces the snapshot a section renders from.
type PortfolioSource interface {
	GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error)
}

// PageViewTracker records a page view without blocking.
type PageViewTracker interface {
	TrackPageView(page, referrer string)
}

// Section is one independently loaded part of the page.
type Section struct {
	name     string
	source   PortfolioSource
	tracker  PageViewTracker
	referrer string
	category string
	form     *ContactForm

	once sync.Once

	mu          sync.Mutex
	state       State
	snapshot    *types.PortfolioSnapshot
	errMsg      string
	transitions int
	unmounted   bool
}

// SectionOption configures a Section.
type SectionOption func(*Section)

// WithTracker fires a page view for the section once it is ready.
func WithTracker(tracker PageViewTracker, referrer string) SectionOption {
	return func(s *Section) {
		s.tracker = tracker
		s.referrer = referrer
	}
}

// WithProjectCategory filters the projects section to one category.
func WithProjectCategory(category string) SectionOption {
	return func(s *Section) {
		s.category = category
	}
}

// WithContactForm attaches the form rendered inside the contact section.
func WithContactForm(form *ContactForm) SectionOption {
	return func(s *Section) {
		s.form = form
	}
}

// NewSection creates a section in the loading state.
func NewSection(name string, source PortfolioSource, opts ...SectionOption) *Section {
	s := &Section{
		name:   name,
		source: source,
		state:  StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Mount fetches the snapshot. Only the first call does any work; the section
// then settles in StateReady or StateFailed for good.
func (s *Section) Mount(ctx context.Context) {
	s.once.Do(func() {
		snap, err := s.source.GetPortfolio(ctx)

		s.mu.Lock()
		if s.unmounted {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.state = StateFailed
			s.errMsg = failureText(err)
		} else {
			s.state = StateReady
			s.snapshot = snap
		}
		s.transitions++
		ready := s.state == StateReady
		s.mu.Unlock()

		if ready && s.tracker != nil {
			s.tracker.TrackPageView(s.name, s.referrer)
		}
	})
}

// Unmount detaches the section. A fetch still in flight will not update it.
func (s *Section) Unmount() {
	s.mu.Lock()
	s.unmounted = true
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Section) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the held snapshot, or nil unless ready.
func (s *Section) Snapshot() *types.PortfolioSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Err returns the failure message, or "" unless failed.
func (s *Section) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Transitions returns how many state changes the section has made.
func (s *Section) Transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions
}

// Render writes the section's HTML for its current state.
func (s *Section) Render(w io.Writer) error {
	if templates.Lookup(s.name) == nil {
		return fmt.Errorf("unknown section: %s", s.name)
	}

	s.mu.Lock()
	data := sectionData{
		Name:     s.name,
		State:    s.state.String(),
		Error:    s.errMsg,
		Snapshot: s.snapshot,
	}
	state := s.state
	s.mu.Unlock()

	tmpl := s.name
	switch state {
	case StateLoading:
		tmpl = "loading"
	case StateFailed:
		tmpl = "failed"
		if s.name == SectionContact && s.form != nil {
			tmpl = "contact_failed"
			fd := s.form.data()
			data.Form = &fd
		}
	case StateReady:
		if s.name == SectionProjects {
			data.Categories = append([]string{types.CategoryAll}, types.ProjectCategories...)
			data.Category = normalizeCategory(s.category)
			data.Projects = FilterProjects(data.Snapshot.Projects, data.Category)
		}
		if s.name == SectionContact && s.form != nil {
			fd := s.form.data()
			data.Form = &fd
		}
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("failed to render section %s: %w", s.name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// FilterProjects returns the projects in category, keeping their order.
// An empty category or "All" returns every project.
func FilterProjects(projects []types.ProjectItem, category string) []types.ProjectItem {
	if category == "" || category == types.CategoryAll {
		return projects
	}
	out := make([]types.ProjectItem, 0, len(projects))
	for _, p := range projects {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func normalizeCategory(c string) string {
	if c == "" || !types.IsProjectCategory(c) {
		return types.CategoryAll
	}
	return c
}

// failureText turns a fetch error into a non-empty display message.
func failureText(err error) string {
	var fe *apiclient.FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultFailureMessage
}
