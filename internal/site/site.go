// Package site serves the portfolio as server-rendered HTML, fetching all
// data through the Data Client.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonathan/portfolio-site/internal/apiclient"
	"github.com/jonathan/portfolio-site/internal/view"
)

// Options configures a Site.
type Options struct {
	Client *apiclient.Client
	// SharedSnapshot lets all sections and requests share one snapshot fetch
	// until a client sends Cache-Control: no-cache.
	SharedSnapshot bool
	// DisablePageViews stops logging a page view per ready section.
	DisablePageViews bool
}

// Site is the HTML front end.
type Site struct {
	client     *apiclient.Client
	cache      *apiclient.SnapshotCache
	pageViews  bool
	submission *submissionGuard
	router     chi.Router
}

// New builds the site and its routes.
func New(opts Options) (*Site, error) {
	if opts.Client == nil {
		return nil, errors.New("site requires a data client")
	}

	s := &Site{
		client:     opts.Client,
		pageViews:  !opts.DisablePageViews,
		submission: newSubmissionGuard(),
	}
	if opts.SharedSnapshot {
		s.cache = apiclient.NewSnapshotCache(opts.Client)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/contact", s.handleContact)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	s.router = r
	return s, nil
}

// Handler returns the router.
func (s *Site) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and waits for pending page-view logs.
func (s *Site) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Site starting on %s (API %s)", addr, s.client.APIURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("site error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down site...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.client.Wait()
	if err != nil {
		return fmt.Errorf("site shutdown failed: %w", err)
	}
	return nil
}

// source returns where sections read the snapshot from.
func (s *Site) source() view.PortfolioSource {
	if s.cache != nil {
		return s.cache
	}
	return s.client
}

// visitorContext tags the request context with the visitor's address so the
// API rate-limits and hashes the visitor rather than this server.
func visitorContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return apiclient.WithClientIP(r.Context(), host)
}

func (s *Site) newPage(ctx context.Context, r *http.Request, submitter view.ContactSubmitter, track bool) *view.Page {
	opts := []view.PageOption{view.WithCategory(r.URL.Query().Get("category"))}
	if track && s.pageViews {
		opts = append(opts, view.WithPageViews(visitorTracker{ctx: ctx, client: s.client}, r.Referer()))
	}
	return view.NewPage(s.source(), submitter, opts...)
}

// handleIndex renders the whole page. A hard reload drops the shared snapshot.
func (s *Site) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil && strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
		s.cache.Invalidate()
	}

	ctx := visitorContext(r)
	page := s.newPage(ctx, r, s.client, true)
	page.Mount(ctx)
	s.render(w, page, http.StatusOK)
}

// handleContact submits the posted form and re-renders the page with the
// outcome. Field values survive a failed submission. A repeated post of the
// same form token is sent to the API once.
func (s *Site) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := visitorContext(r)
	submitter := guardedSubmitter{
		guard:  s.submission,
		token:  r.PostForm.Get(view.TokenField),
		target: s.client,
	}
	page := s.newPage(ctx, r, submitter, false)
	form := page.Contact()
	for _, field := range []view.Field{view.FieldName, view.FieldEmail, view.FieldCompany, view.FieldMessage} {
		if err := form.SetField(field, r.PostForm.Get(string(field))); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	status := http.StatusOK
	if r.PostForm.Get("action") == "dismiss" {
		form.Dismiss()
	} else if err := form.Submit(ctx); err != nil {
		log.Printf("Contact form not sent: %v", err)
		status = http.StatusUnprocessableEntity
	}

	page.Mount(ctx)
	s.render(w, page, status)
}

func (s *Site) render(w http.ResponseWriter, page *view.Page, status int) {
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		log.Printf("Error rendering page: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// visitorTracker logs page views on behalf of one visitor.
type visitorTracker struct {
	ctx    context.Context
	client *apiclient.Client
}

func (t visitorTracker) TrackPageView(page, referrer string) {
	t.client.TrackPageViewContext(t.ctx, page, referrer)
}
