package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/portfolio-site/internal/types"
)

// PostgresStore is a Store backed by a pgx connection pool. The portfolio is a
// single JSONB row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and applies the schema.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetPortfolio returns the stored snapshot, or nil when none has been stored.
func (s *PostgresStore) GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM portfolio WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	var snap types.PortfolioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	return &snap, nil
}

// UpsertPortfolio replaces the stored snapshot.
func (s *PostgresStore) UpsertPortfolio(ctx context.Context, snap *types.PortfolioSnapshot) error {
	if err := prepareSnapshot(snap); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO portfolio (id, data, updated_at)
		 VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = NOW()`,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to save portfolio: %w", err)
	}
	return nil
}

// CreateContactSubmission stores a contact submission.
func (s *PostgresStore) CreateContactSubmission(ctx context.Context, rec *types.ContactRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_submissions
		 (id, name, email, company, message, submitted_at, source, status, client_hash, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.Name, rec.Email, rec.Company, rec.Message,
		rec.Timestamp, rec.Source, rec.Status, rec.ClientHash, rec.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact submission: %w", err)
	}
	return nil
}

// ListContactSubmissions returns up to limit submissions, newest first.
func (s *PostgresStore) ListContactSubmissions(ctx context.Context, limit int) ([]types.ContactRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, company, message, submitted_at, source, status, client_hash, user_agent
		 FROM contact_submissions
		 ORDER BY submitted_at DESC
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	defer rows.Close()

	out := []types.ContactRecord{}
	for rows.Next() {
		var rec types.ContactRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Company, &rec.Message,
			&rec.Timestamp, &rec.Source, &rec.Status, &rec.ClientHash, &rec.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateSubmissionStatus sets the status of one submission.
func (s *PostgresStore) UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contact_submissions SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LogPageView stores a page view.
func (s *PostgresStore) LogPageView(ctx context.Context, view *types.PageView) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_views (id, page, referrer, viewed_at, client_hash, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		view.ID, view.Page, view.Referrer, view.Timestamp, view.ClientHash, view.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("failed to log page view: %w", err)
	}
	return nil
}

// AnalyticsSummary counts views and contacts since the cutoff and lists the
// most viewed pages.
func (s *PostgresStore) AnalyticsSummary(ctx context.Context, days int) (*types.AnalyticsSummary, error) {
	days = clampDays(days)
	since := cutoff(days)
	summary := &types.AnalyticsSummary{TopPages: []types.PageCount{}, Period: periodLabel(days)}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM page_views WHERE viewed_at >= $1`, since,
	).Scan(&summary.TotalViews); err != nil {
		return nil, fmt.Errorf("failed to count page views: %w", err)
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_submissions WHERE submitted_at >= $1`, since,
	).Scan(&summary.TotalContacts); err != nil {
		return nil, fmt.Errorf("failed to count contact submissions: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT page, COUNT(*) AS views FROM page_views
		 WHERE viewed_at >= $1
		 GROUP BY page
		 ORDER BY views DESC, page ASC
		 LIMIT $2`,
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
