package kalshi

import (
	"context"
	"encoding/json"
	"strings"

	"kalshigo/pkg/core"
)

// QuotesParams filters a GetQuotes listing. Zero values are omitted.
type QuotesParams struct {
	MarketTicker string
	EventTicker  string
	Status       string
	Cursor       string
	Limit        int
}

func (p *QuotesParams) query() core.Params {
	q := core.Params{}
	if p == nil {
		return q
	}
	if p.MarketTicker != "" {
		q["market_ticker"] = p.MarketTicker
	}
	if p.EventTicker != "" {
		q["event_ticker"] = p.EventTicker
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	if p.Cursor != "" {
		q["cursor"] = p.Cursor
	}
	if p.Limit > 0 {
		q["limit"] = p.Limit
	}
	return q
}

// GetQuotes lists request-for-quote responses matching the filter.
func (c *Client) GetQuotes(ctx context.Context, params *QuotesParams) ([]Quote, string, error) {
	var out quotesResponse
	if err := c.get(ctx, core.APIBasePath+"/communications/quotes", params.query(), &out); err != nil {
		return nil, "", err
	}
	return out.Quotes, out.Cursor, nil
}

// GetLiveDataMilestone fetches real-time data for one milestone. Payload
// shape varies by data type, so the body is returned raw for the caller to
// decode.
func (c *Client) GetLiveDataMilestone(ctx context.Context, dataType, milestoneID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := core.APIBasePath + "/live_data/" + dataType + "/milestone/" + milestoneID
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLiveDataBatch fetches real-time data for several milestones at once.
func (c *Client) GetLiveDataBatch(ctx context.Context, milestoneIDs, dataTypes []string) (json.RawMessage, error) {
	q := core.Params{}
	if len(milestoneIDs) > 0 {
		q["milestone_ids"] = strings.Join(milestoneIDs, ",")
	}
	if len(dataTypes) > 0 {
		q["data_types"] = strings.Join(dataTypes, ",")
	}
	var out json.RawMessage
	if err := c.get(ctx, core.APIBasePath+"/live_data/batch", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
