package apiclient

import (
	"context"

	"github.com/jonathan/portfolio-site/internal/types"
)

// HealthCheck calls GET /api/.
func (c *Client) HealthCheck(ctx context.Context) (*types.HealthStatus, error) {
	var out types.HealthStatus
	if _, err := c.get(ctx, "health check", "/", false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
