package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/portfolio-site/internal/types"
)

const (
	opFetchAnalytics = "fetch analytics summary"

	defaultSummaryDays = 30
)

// LogPageView records a page view. Analytics is best-effort: any failure is
// logged to the diagnostic sink and nil is returned. It never returns an error.
func (c *Client) LogPageView(ctx context.Context, page, referrer string) *types.PageViewAck {
	resp, err := c.do(ctx, http.MethodPost, "/analytics/page-view", types.PageViewEvent{
		Page:     page,
		Referrer: referrer,
	}, false)
	if err != nil {
		c.logger.Printf("Failed to log page view: %v", err)
		return nil
	}
	if !resp.ok() {
		c.logger.Printf("Failed to log page view: %s", failureMessage(resp.body, resp.status, nil))
		return nil
	}

	var ack types.PageViewAck
	if err := json.Unmarshal(resp.body, &ack); err != nil {
		// The body is implementation-defined; a 2xx is enough.
		return &types.PageViewAck{Success: true}
	}
	return &ack
}

// TrackPageView dispatches LogPageView without waiting for it. The request runs
// on its own context bounded by the client timeout, so it outlives the caller.
func (c *Client) TrackPageView(page, referrer string) {
	c.TrackPageViewContext(context.Background(), page, referrer)
}

// TrackPageViewContext is TrackPageView for a request scope. Values on ctx,
// such as the visitor address, are kept but its cancellation is not.
func (c *Client) TrackPageViewContext(ctx context.Context, page, referrer string) {
	ctx = context.WithoutCancel(ctx)
	c.tracking.Add(1)
	go func() {
		defer c.tracking.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Printf("Failed to log page view: panic: %v", r)
			}
		}()
		c.LogPageView(ctx, page, referrer)
	}()
}

// Wait blocks until every dispatched TrackPageView has finished.
func (c *Client) Wait() {
	c.tracking.Wait()
}

// GetAnalyticsSummary fetches the trailing-window analytics aggregate.
// A non-positive days uses 30.
func (c *Client) GetAnalyticsSummary(ctx context.Context, days int) (*types.AnalyticsSummary, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	var out types.AnalyticsSummary
	if _, err := c.get(ctx, opFetchAnalytics, fmt.Sprintf("/analytics/summary?days=%d", days), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
