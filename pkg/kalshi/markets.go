package kalshi

import (
	"context"

	"kalshigo/pkg/core"
)

// MarketsParams filters a GetMarkets listing. Zero values are omitted.
type MarketsParams struct {
	Limit        int
	Cursor       string
	EventTicker  string
	SeriesTicker string
	Status       string
	Tickers      string
	MinCloseTS   int64
	MaxCloseTS   int64
}

func (p *MarketsParams) query() core.Params {
	q := core.Params{}
	if p == nil {
		return q
	}
	if p.Limit > 0 {
		q["limit"] = p.Limit
	}
	if p.Cursor != "" {
		q["cursor"] = p.Cursor
	}
	if p.EventTicker != "" {
		q["event_ticker"] = p.EventTicker
	}
	if p.SeriesTicker != "" {
		q["series_ticker"] = p.SeriesTicker
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	if p.Tickers != "" {
		q["tickers"] = p.Tickers
	}
	if p.MinCloseTS > 0 {
		q["min_close_ts"] = p.MinCloseTS
	}
	if p.MaxCloseTS > 0 {
		q["max_close_ts"] = p.MaxCloseTS
	}
	return q
}

// GetMarkets lists markets matching the filter. The returned cursor is empty
// on the last page.
func (c *Client) GetMarkets(ctx context.Context, params *MarketsParams) ([]Market, string, error) {
	var out marketsResponse
	if err := c.get(ctx, core.APIBasePath+"/markets", params.query(), &out); err != nil {
		return nil, "", err
	}
	return out.Markets, out.Cursor, nil
}

// GetMarket fetches one market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var out marketResponse
	if err := c.get(ctx, core.APIBasePath+"/markets/"+ticker, nil, &out); err != nil {
		return nil, err
	}
	return &out.Market, nil
}

// GetOrderbook fetches the resting liquidity for one market. depth of zero
// returns all levels.
func (c *Client) GetOrderbook(ctx context.Context, ticker string, depth int) (*Orderbook, error) {
	q := core.Params{}
	if depth > 0 {
		q["depth"] = depth
	}
	var out orderbookResponse
	if err := c.get(ctx, core.APIBasePath+"/markets/"+ticker+"/orderbook", q, &out); err != nil {
		return nil, err
	}
	return &out.Orderbook, nil
}

// TradesParams filters a GetTrades listing.
type TradesParams struct {
	Ticker string
	Limit  int
	Cursor string
	MinTS  int64
	MaxTS  int64
}

func (p *TradesParams) query() core.Params {
	q := core.Params{}
	if p == nil {
		return q
	}
	if p.Ticker != "" {
		q["ticker"] = p.Ticker
	}
	if p.Limit > 0 {
		q["limit"] = p.Limit
	}
	if p.Cursor != "" {
		q["cursor"] = p.Cursor
	}
	if p.MinTS > 0 {
		q["min_ts"] = p.MinTS
	}
	if p.MaxTS > 0 {
		q["max_ts"] = p.MaxTS
	}
	return q
}

// GetTrades lists public executions, most recent first.
func (c *Client) GetTrades(ctx context.Context, params *TradesParams) ([]Trade, string, error) {
	var out tradesResponse
	if err := c.get(ctx, core.APIBasePath+"/markets/trades", params.query(), &out); err != nil {
		return nil, "", err
	}
	return out.Trades, out.Cursor, nil
}

// GetCandlesticks fetches aggregated price history for one market.
// periodInterval is in minutes: 1, 60 or 1440.
func (c *Client) GetCandlesticks(ctx context.Context, seriesTicker, ticker string, startTS, endTS int64, periodInterval int) ([]Candlestick, error) {
	q := core.Params{
		"start_ts":        startTS,
		"end_ts":          endTS,
		"period_interval": periodInterval,
	}
	path := core.APIBasePath + "/series/" + seriesTicker + "/markets/" + ticker + "/candlesticks"
	var out candlesticksResponse
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out.Candlesticks, nil
}

// EventsParams filters a GetEvents listing.
type EventsParams struct {
	Limit             int
	Cursor            string
	SeriesTicker      string
	Status            string
	WithNestedMarkets bool
}

func (p *EventsParams) query() core.Params {
	q := core.Params{}
	if p == nil {
		return q
	}
	if p.Limit > 0 {
		q["limit"] = p.Limit
	}
	if p.Cursor != "" {
		q["cursor"] = p.Cursor
	}
	if p.SeriesTicker != "" {
		q["series_ticker"] = p.SeriesTicker
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	if p.WithNestedMarkets {
		q["with_nested_markets"] = true
	}
	return q
}

// GetEvents lists events matching the filter.
func (c *Client) GetEvents(ctx context.Context, params *EventsParams) ([]MarketEvent, string, error) {
	var out eventsResponse
	if err := c.get(ctx, core.APIBasePath+"/events", params.query(), &out); err != nil {
		return nil, "", err
	}
	return out.Events, out.Cursor, nil
}

// GetEvent fetches one event and its markets.
func (c *Client) GetEvent(ctx context.Context, eventTicker string) (*MarketEvent, error) {
	var out eventResponse
	if err := c.get(ctx, core.APIBasePath+"/events/"+eventTicker, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Event.Markets) == 0 {
		out.Event.Markets = out.Markets
	}
	return &out.Event, nil
}

// GetEventMetadata fetches display and settlement details for one event.
func (c *Client) GetEventMetadata(ctx context.Context, eventTicker string) (*EventMetadata, error) {
	var out EventMetadata
	if err := c.get(ctx, core.APIBasePath+"/events/"+eventTicker+"/metadata", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEventCandlesticks fetches aggregated price history for every market in
// an event. Zero timestamps and interval are omitted.
func (c *Client) GetEventCandlesticks(ctx context.Context, seriesTicker, eventTicker string, startTS, endTS int64, periodInterval int) (*EventCandlesticks, error) {
	q := core.Params{}
	if startTS > 0 {
		q["start_ts"] = startTS
	}
	if endTS > 0 {
		q["end_ts"] = endTS
	}
	if periodInterval > 0 {
		q["period_interval"] = periodInterval
	}
	path := core.APIBasePath + "/series/" + seriesTicker + "/events/" + eventTicker + "/candlesticks"
	var out EventCandlesticks
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSeriesList lists series in a category.
func (c *Client) GetSeriesList(ctx context.Context, category string) ([]Series, error) {
	q := core.Params{}
	if category != "" {
		q["category"] = category
	}
	var out seriesListResponse
	if err := c.get(ctx, core.APIBasePath+"/series", q, &out); err != nil {
		return nil, err
	}
	return out.Series, nil
}

// GetSeries fetches one series by ticker.
func (c *Client) GetSeries(ctx context.Context, seriesTicker string) (*Series, error) {
	var out seriesResponse
	if err := c.get(ctx, core.APIBasePath+"/series/"+seriesTicker, nil, &out); err != nil {
		return nil, err
	}
	return &out.Series, nil
}
