package view

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"sync"
)

// Page is the full single-page site: every section plus the contact form.
type Page struct {
	sections []*Section
	byName   map[string]*Section
	contact  *ContactForm
}

// pageConfig collects PageOption values.
type pageConfig struct {
	tracker  PageViewTracker
	referrer string
	category string
}

// PageOption configures a Page.
type PageOption func(*pageConfig)

// WithPageViews tracks a page view per section as it becomes ready.
func WithPageViews(tracker PageViewTracker, referrer string) PageOption {
	return func(c *pageConfig) {
		c.tracker = tracker
		c.referrer = referrer
	}
}

// WithCategory selects the project category filter.
func WithCategory(category string) PageOption {
	return func(c *pageConfig) {
		c.category = category
	}
}

// NewPage builds every section in page order. All sections share source but
// each fetches on its own when mounted.
func NewPage(source PortfolioSource, submitter ContactSubmitter, opts ...PageOption) *Page {
	var cfg pageConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Page{
		byName:  make(map[string]*Section, len(SectionNames)),
		contact: NewContactForm(submitter),
	}
	for _, name := range SectionNames {
		sectionOpts := []SectionOption{}
		if cfg.tracker != nil {
			sectionOpts = append(sectionOpts, WithTracker(cfg.tracker, cfg.referrer))
		}
		switch name {
		case SectionProjects:
			sectionOpts = append(sectionOpts, WithProjectCategory(cfg.category))
		case SectionContact:
			sectionOpts = append(sectionOpts, WithContactForm(p.contact))
		}
		s := NewSection(name, source, sectionOpts...)
		p.sections = append(p.sections, s)
		p.byName[name] = s
	}
	return p
}

// Sections returns the sections in page order.
func (p *Page) Sections() []*Section {
	return p.sections
}

// Section returns the named section, or nil.
func (p *Page) Section(name string) *Section {
	return p.byName[name]
}

// Contact returns the contact form.
func (p *Page) Contact() *ContactForm {
	return p.contact
}

// Mount mounts every section concurrently and joins them. Sections record
// their own failures, so one failing section never affects the others.
func (p *Page) Mount(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range p.sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mount(ctx)
		}()
	}
	wg.Wait()
}

// Unmount detaches every section.
func (p *Page) Unmount() {
	for _, s := range p.sections {
		s.Unmount()
	}
}

// layoutData is passed to the page template.
type layoutData struct {
	Title    string
	Sections []template.HTML
}

// Render writes the full HTML document.
func (p *Page) Render(w io.Writer) error {
	data := layoutData{Title: "Portfolio"}
	if snap := p.byName[SectionHero].Snapshot(); snap != nil && snap.Personal.Name != "" {
		data.Title = snap.Personal.Name + " | " + snap.Personal.Title
	}

	for _, s := range p.sections {
		var buf bytes.Buffer
		if err := s.Render(&buf); err != nil {
			return err
		}
		data.Sections = append(data.Sections, template.HTML(buf.String())) //nolint:gosec // produced by html/template
	}

	var out bytes.Buffer
	if err := templates.ExecuteTemplate(&out, "page", data); err != nil {
		return err
	}
	_, err := out.WriteTo(w)
	return err
}
