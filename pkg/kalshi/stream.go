package kalshi

import (
	"context"

	"github.com/bytedance/sonic"

	"kalshigo/internal/pipeline"
	"kalshigo/internal/stream"
	"kalshigo/pkg/core"
)

// Stream is the typed facade over the streaming connection. Subscriptions
// survive reconnects; each callback runs on its own dispatch goroutine.
type Stream struct {
	manager *stream.Manager
}

func newStream(cfg *core.Config, dialer stream.Dialer, p *pipeline.Pipeline) *Stream {
	url := cfg.Environment.WSBaseURL() + core.WSPath
	// The handshake is a signed request like any other; it shares the REST
	// pacer so a reconnect storm cannot blow the exchange's rate limit.
	signFn := func(ctx context.Context) (map[string]string, error) {
		if err := p.Pacer().Wait(ctx); err != nil {
			return nil, err
		}
		return p.SignedHeaders("GET", core.WSPath)
	}
	return &Stream{
		manager: stream.NewManager(cfg, dialer, url, signFn),
	}
}

// Start opens the streaming connection and keeps it alive until Close.
func (s *Stream) Start(ctx context.Context) error {
	return s.manager.Start(ctx)
}

// WaitConnected blocks until the first successful connection or context
// expiry.
func (s *Stream) WaitConnected(ctx context.Context) error {
	return s.manager.WaitConnected(ctx)
}

// State returns the connection state.
func (s *Stream) State() stream.ConnState {
	return s.manager.State()
}

// Errors returns the connection's error channel. A ConnectionExhaustedError
// here means the stream is dead and must be restarted by the owner.
func (s *Stream) Errors() <-chan error {
	return s.manager.Errors()
}

// Close shuts the streaming connection down permanently.
func (s *Stream) Close() error {
	return s.manager.Close()
}

// TickerUpdate is one price update on the ticker channel.
type TickerUpdate struct {
	MarketTicker string `json:"market_ticker"`
	Price        int    `json:"price"`
	YesBid       int    `json:"yes_bid"`
	YesAsk       int    `json:"yes_ask"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
	TS           int64  `json:"ts"`
}

// PublicTrade is one execution on the trade channel.
type PublicTrade struct {
	MarketTicker string `json:"market_ticker"`
	YesPrice     int    `json:"yes_price"`
	NoPrice      int    `json:"no_price"`
	Count        int64  `json:"count"`
	TakerSide    string `json:"taker_side"`
	TS           int64  `json:"ts"`
}

// OrderbookDelta is one level change on the orderbook channel. A snapshot
// arrives first with full levels; deltas follow with per-level adjustments.
type OrderbookDelta struct {
	MarketTicker string `json:"market_ticker"`
	Price        int    `json:"price"`
	Delta        int64  `json:"delta"`
	Side         string `json:"side"`
	TS           int64  `json:"ts"`
}

// FillUpdate is one execution against the account's own orders.
type FillUpdate struct {
	OrderID      string `json:"order_id"`
	MarketTicker string `json:"market_ticker"`
	Side         string `json:"side"`
	Action       string `json:"action"`
	Count        int64  `json:"count"`
	YesPrice     int    `json:"yes_price"`
	NoPrice      int    `json:"no_price"`
	IsTaker      bool   `json:"is_taker"`
	TS           int64  `json:"ts"`
}

// SubscribeTicker delivers price updates for one market, or all markets when
// marketTicker is empty. The returned id cancels the subscription via
// Unsubscribe.
func (s *Stream) SubscribeTicker(marketTicker string, fn func(TickerUpdate)) (int64, error) {
	return s.manager.Subscribe(stream.ChannelTicker, marketTicker, decodeInto(fn))
}

// SubscribeTrades delivers public executions.
func (s *Stream) SubscribeTrades(marketTicker string, fn func(PublicTrade)) (int64, error) {
	return s.manager.Subscribe(stream.ChannelTrade, marketTicker, decodeInto(fn))
}

// SubscribeOrderbook delivers orderbook snapshots and deltas for one market.
func (s *Stream) SubscribeOrderbook(marketTicker string, fn func(OrderbookDelta)) (int64, error) {
	return s.manager.Subscribe(stream.ChannelOrderbookDelta, marketTicker, decodeInto(fn))
}

// SubscribeFills delivers the account's own executions.
func (s *Stream) SubscribeFills(fn func(FillUpdate)) (int64, error) {
	return s.manager.Subscribe(stream.ChannelFill, "", decodeInto(fn))
}

// SubscribeRaw delivers undecoded events for a channel, for payload shapes
// the typed facade does not cover.
func (s *Stream) SubscribeRaw(channel, marketTicker string, fn func(stream.Event)) (int64, error) {
	return s.manager.Subscribe(channel, marketTicker, fn)
}

// Unsubscribe cancels a subscription by id.
func (s *Stream) Unsubscribe(id int64) {
	s.manager.Unsubscribe(id)
}

// decodeInto adapts a typed callback to the manager's raw event handler.
// Payloads that fail to decode are dropped; the frame was already valid
// enough to route, so only the msg shape is at fault.
func decodeInto[T any](fn func(T)) stream.Handler {
	return func(ev stream.Event) {
		var payload T
		if err := sonic.Unmarshal(ev.Msg, &payload); err != nil {
			return
		}
		fn(payload)
	}
}
