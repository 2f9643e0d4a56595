// Package db provides storage for the portfolio document, contact submissions
// and page views, backed by PostgreSQL or SQLite.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/portfolio-site/internal/types"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ErrNotFound is returned when an update targets a record that does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultSubmissionLimit is used when a list call passes a non-positive limit.
const DefaultSubmissionLimit = 50

// TopPagesLimit caps the pages returned in an analytics summary.
const TopPagesLimit = 10

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Store is the persistence layer behind the API server.
type Store interface {
	// GetPortfolio returns the stored snapshot, or nil when none has been stored.
	GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error)
	// UpsertPortfolio replaces the stored snapshot.
	UpsertPortfolio(ctx context.Context, snap *types.PortfolioSnapshot) error

	CreateContactSubmission(ctx context.Context, rec *types.ContactRecord) error
	// ListContactSubmissions returns the newest submissions first.
	ListContactSubmissions(ctx context.Context, limit int) ([]types.ContactRecord, error)
	UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status string) error

	LogPageView(ctx context.Context, view *types.PageView) error
	// AnalyticsSummary covers the last days days.
	AnalyticsSummary(ctx context.Context, days int) (*types.AnalyticsSummary, error)

	Close()
}

// Connect opens the store named by databaseURL and applies its schema.
// postgres:// and postgresql:// URLs use PostgreSQL; sqlite:, file: and
// :memory: use SQLite.
func Connect(ctx context.Context, databaseURL string) (Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(databaseURL, "sqlite:"),
		strings.HasPrefix(databaseURL, "file:"),
		databaseURL == ":memory:":
		store, err := OpenSQLite(ctx, sqlitePath(databaseURL))
		if err != nil {
			return nil, err
		}
		return store, nil
	case databaseURL == "":
		return nil, errors.New("database URL is required")
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %s", redact(databaseURL))
	}
}

// sqlitePath strips the sqlite: prefix so the driver receives a plain path or
// file: URI.
func sqlitePath(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "sqlite:"); ok {
		return rest
	}
	return databaseURL
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(databaseURL string) string {
	if scheme, _, ok := strings.Cut(databaseURL, "://"); ok {
		return scheme + "://..."
	}
	if len(databaseURL) > 16 {
		return databaseURL[:16] + "..."
	}
	return databaseURL
}

// prepareSnapshot stamps LastUpdated when the caller left it unset.
func prepareSnapshot(snap *types.PortfolioSnapshot) error {
	if snap == nil {
		return errors.New("portfolio snapshot is nil")
	}
	if snap.LastUpdated.IsZero() {
		snap.LastUpdated = time.Now().UTC()
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSubmissionLimit
	}
	return limit
}

func clampDays(days int) int {
	if days <= 0 {
		return 30
	}
	return days
}

func periodLabel(days int) string {
	return fmt.Sprintf("Last %d days", days)
}

func cutoff(days int) time.Time {
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
}
