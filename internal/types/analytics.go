package types

import (
	"time"

	"github.com/google/uuid"
)

// PageViewEvent is the body of POST /api/analytics/page-view.
type PageViewEvent struct {
	Page     string `json:"page"`
	Referrer string `json:"referrer,omitempty"`
}

// PageView is a stored page view.
type PageView struct {
	ID         uuid.UUID `json:"id"`
	Page       string    `json:"page"`
	Referrer   string    `json:"referrer,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ClientHash string    `json:"clientHash,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

// PageViewAck is the acknowledgment body of a logged page view. Callers may ignore it.
type PageViewAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PageCount is one row of the top-pages aggregate.
type PageCount struct {
	Page  string `json:"page"`
	Views int64  `json:"views"`
}

// AnalyticsSummary aggregates page views and contacts over a trailing window.
type AnalyticsSummary struct {
	TotalViews    int64       `json:"totalViews"`
	TotalContacts int64       `json:"totalContacts"`
	TopPages      []PageCount `json:"topPages"`
	Period        string      `json:"period"`
}

// HealthStatus is the body of GET /api/.
type HealthStatus struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
