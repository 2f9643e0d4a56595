package apiclient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jonathan/portfolio-site/internal/schemas"
	"github.com/jonathan/portfolio-site/internal/types"
)

const opFetchPortfolio = "fetch portfolio data"

// GetPortfolio fetches the complete portfolio snapshot. A response whose body
// is missing any required sub-section is treated as a failure.
func (c *Client) GetPortfolio(ctx context.Context) (*types.PortfolioSnapshot, error) {
	resp, err := c.get(ctx, opFetchPortfolio, "/portfolio", false, nil)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidatePortfolio(resp.body); err != nil {
		msg := "incomplete portfolio data"
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			msg += ": " + ve.Summary()
		} else {
			msg = "invalid response body: " + err.Error()
		}
		c.logger.Printf("Error fetching portfolio data: %s", msg)
		return nil, &FetchError{Op: opFetchPortfolio, Message: msg, StatusCode: resp.status, Cause: err}
	}

	var snapshot types.PortfolioSnapshot
	if err := json.Unmarshal(resp.body, &snapshot); err != nil {
		return nil, &FetchError{
			Op:         opFetchPortfolio,
			Message:    "invalid response body: " + err.Error(),
			StatusCode: resp.status,
			Cause:      err,
		}
	}
	return &snapshot, nil
}
