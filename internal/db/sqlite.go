package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/portfolio-site/internal/types"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is a Store backed by modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A :memory: database exists per connection, and SQLite serialises writers anyway.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=10000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLiteStore{db: conn}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// GetPortfolio returns the stored snapshot, or nil when none has been stored.
func (s *SQLiteStore) GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM portfolio WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	var snap types.PortfolioSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	return &snap, nil
}

// UpsertPortfolio replaces the stored snapshot.
func (s *SQLiteStore) UpsertPortfolio(ctx context.Context, snap *types.PortfolioSnapshot) error {
	if err := prepareSnapshot(snap); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO portfolio (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), now,
	)
	if err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

// CreateContactSubmission stores a contact submission.
func (s *SQLiteStore) CreateContactSubmission(ctx context.Context, rec *types.ContactRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_submissions
		 (id, name, email, company, message, submitted_at, source, status, client_hash, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Name, rec.Email, rec.Company, rec.Message,
		formatTime(rec.Timestamp), rec.Source, rec.Status, rec.ClientHash, rec.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact submission: %w", err)
	}
	return nil
}

// ListContactSubmissions returns up to limit submissions, newest first.
func (s *SQLiteStore) ListContactSubmissions(ctx context.Context, limit int) ([]types.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, company, message, submitted_at, source, status, client_hash, user_agent
		 FROM contact_submissions
		 ORDER BY submitted_at DESC
		 LIMIT ?`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	defer rows.Close()

	out := []types.ContactRecord{}
	for rows.Next() {
		var (
			rec       types.ContactRecord
			id, stamp string
		)
		if err := rows.Scan(&id, &rec.Name, &rec.Email, &rec.Company, &rec.Message,
			&stamp, &rec.Source, &rec.Status, &rec.ClientHash, &rec.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid submission id %q: %w", id, err)
		}
		if rec.Timestamp, err = parseTime(stamp); err != nil {
			return nil, fmt.Errorf("invalid submission timestamp %q: %w", stamp, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateSubmissionStatus sets the status of one submission.
func (s *SQLiteStore) UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contact_submissions SET status = ? WHERE id = ?`,
		status, id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LogPageView stores a page view.
func (s *SQLiteStore) LogPageView(ctx context.Context, view *types.PageView) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_views (id, page, referrer, viewed_at, client_hash, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		view.ID.String(), view.Page, view.Referrer, formatTime(view.Timestamp), view.ClientHash, view.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to log page view: %w", err)
	}
	return nil
}

// AnalyticsSummary counts views and contacts since the cutoff and lists the
// most viewed pages.
func (s *SQLiteStore) AnalyticsSummary(ctx context.Context, days int) (*types.AnalyticsSummary, error) {
	days = clampDays(days)
	since := formatTime(cutoff(days))
	summary := &types.AnalyticsSummary{TopPages: []types.PageCount{}, Period: periodLabel(days)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page_views WHERE viewed_at >= ?`, since,
	).Scan(&summary.TotalViews); err != nil {
		return nil, fmt.Errorf("failed to count page views: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_submissions WHERE submitted_at >= ?`, since,
	).Scan(&summary.TotalContacts); err != nil {
		return nil, fmt.Errorf("failed to count contact submissions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT page, COUNT(*) AS views FROM page_views
		 WHERE viewed_at >= ?
		 GROUP BY page
		 ORDER BY views DESC, page ASC
		 LIMIT ?`,
		since, TopPagesLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pc types.PageCount
		if err := rows.Scan(&pc.Page, &pc.Views); err != nil {
			return nil, fmt.Errorf("failed to scan top page: %w", err)
		}
		summary.TopPages = append(summary.TopPages, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top pages: %w", err)
	}
	return summary, nil
}
