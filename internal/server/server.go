// Package server provides the portfolio HTTP REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/portfolio-site/internal/config"
	"github.com/jonathan/portfolio-site/internal/db"
	"github.com/jonathan/portfolio-site/internal/server/middleware"
	"github.com/jonathan/portfolio-site/internal/server/ratelimit"
	"github.com/microcosm-cc/bluemonday"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       db.Store
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	hasher      *ClientHasher
	proxies     trustedProxies
	validate    *validator.Validate
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

// Config holds server configuration
type Config struct {
	Port      int
	Store     db.Store
	JWT       *config.JWTConfig // nil leaves admin reads open
	IPHashKey string
	RateLimit *ratelimit.Config // nil reads RATE_LIMIT_* from the environment

	// TrustedProxies lists the peers, as IPs or CIDRs, whose X-Forwarded-For
	// header names the real client.
	TrustedProxies []string
}

// New creates a new server instance around an open store.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server requires a store")
	}

	hasher, err := NewClientHasher([]byte(cfg.IPHashKey))
	if err != nil {
		return nil, err
	}

	proxies, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	rateConfig := cfg.RateLimit
	if rateConfig == nil {
		rateConfig = ratelimit.LoadConfig()
	}

	s := &Server{
		store:       cfg.Store,
		rateLimiter: ratelimit.NewLimiter(rateConfig),
		hasher:      hasher,
		proxies:     proxies,
		validate:    validator.New(),
		sanitizer:   bluemonday.StrictPolicy(),
		now:         func() time.Time { return time.Now().UTC() },
	}

	var admin func(http.Handler) http.Handler
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
		admin = middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	} else {
		log.Println("WARNING: JWT_SECRET not set, admin endpoints are unauthenticated")
		admin = middleware.AuthMiddleware(nil)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{$}", s.handleHealth)
	mux.HandleFunc("GET /api/portfolio", s.handleGetPortfolio)
	mux.HandleFunc("POST /api/contact", s.handleSubmitContact)
	mux.HandleFunc("POST /api/analytics/page-view", s.handleLogPageView)

	// Admin reads
	mux.Handle("GET /api/contact/submissions", admin(http.HandlerFunc(s.handleListSubmissions)))
	mux.Handle("PATCH /api/contact/submissions/{id}", admin(http.HandlerFunc(s.handleUpdateSubmissionStatus)))
	mux.Handle("GET /api/analytics/summary", admin(http.HandlerFunc(s.handleAnalyticsSummary)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// JWT returns the token service, or nil when admin auth is disabled.
func (s *Server) JWT() *JWTService {
	return s.jwtService
}

// Start listens until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully. The store is closed on return.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.release()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.release()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

// Close releases the rate limiter and the store without serving.
func (s *Server) Close() {
	s.release()
}

func (s *Server) release() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.store.Close()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their endpoint limit with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.clientIP(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes {"detail": message}.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"detail": message})
}

// errorFromErr maps err to its status and writes it. Internal errors are
// logged and hidden from the client.
func (s *Server) errorFromErr(w http.ResponseWriter, op string, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error %s: %v", op, err)
		s.errorResponse(w, status, "Internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 with a detail message the Data Client can show.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds()+0.5)))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
