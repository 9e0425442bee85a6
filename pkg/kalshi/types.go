package kalshi

// Market statuses reported by the exchange.
const (
	MarketStatusUnopened = "unopened"
	MarketStatusOpen     = "open"
	MarketStatusClosed   = "closed"
	MarketStatusSettled  = "settled"
)

// Order sides and actions. Prices are in cents.
const (
	SideYes = "yes"
	SideNo  = "no"

	ActionBuy  = "buy"
	ActionSell = "sell"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"
)

// ExchangeStatus reports whether trading is currently available.
type ExchangeStatus struct {
	ExchangeActive bool `json:"exchange_active"`
	TradingActive  bool `json:"trading_active"`
}

// DailySchedule is one day's trading hours.
type DailySchedule struct {
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// ExchangeSchedule is the standard weekly trading calendar plus maintenance
// windows.
type ExchangeSchedule struct {
	StandardHours      map[string][]DailySchedule `json:"standard_hours"`
	MaintenanceWindows []MaintenanceWindow        `json:"maintenance_windows"`
}

// MaintenanceWindow is a scheduled downtime interval.
type MaintenanceWindow struct {
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`
}

// Announcement is an exchange-wide notice.
type Announcement struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	DeliveryTime string `json:"delivery_time"`
	Status       string `json:"status"`
}

// Market is one binary market. All prices are integer cents in [1, 99].
type Market struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	MarketType     string `json:"market_type"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"`
	YesBid         int    `json:"yes_bid"`
	YesAsk         int    `json:"yes_ask"`
	NoBid          int    `json:"no_bid"`
	NoAsk          int    `json:"no_ask"`
	LastPrice      int    `json:"last_price"`
	Volume         int64  `json:"volume"`
	Volume24H      int64  `json:"volume_24h"`
	OpenInterest   int64  `json:"open_interest"`
	Liquidity      int64  `json:"liquidity"`
	OpenTime       string `json:"open_time"`
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`
	Result         string `json:"result"`
	CanCloseEarly  bool   `json:"can_close_early"`
	NotionalValue  int    `json:"notional_value"`
	RiskLimitCents int64  `json:"risk_limit_cents"`
	TickSize       int    `json:"tick_size"`
}

// MarketEvent groups related markets under one underlying occurrence.
type MarketEvent struct {
	EventTicker       string   `json:"event_ticker"`
	SeriesTicker      string   `json:"series_ticker"`
	Title             string   `json:"title"`
	SubTitle          string   `json:"sub_title"`
	Category          string   `json:"category"`
	MutuallyExclusive bool     `json:"mutually_exclusive"`
	Markets           []Market `json:"markets,omitempty"`
}

// Series is a recurring family of events.
type Series struct {
	Ticker    string   `json:"ticker"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Frequency string   `json:"frequency"`
	Tags      []string `json:"tags"`
}

// OrderbookLevel is one price level: [price_cents, contracts].
type OrderbookLevel [2]int64

// Price returns the level's price in cents.
func (l OrderbookLevel) Price() int64 { return l[0] }

// Quantity returns the resting contract count at the level.
func (l OrderbookLevel) Quantity() int64 { return l[1] }

// Orderbook is the resting liquidity on both sides of a market.
type Orderbook struct {
	Yes []OrderbookLevel `json:"yes"`
	No  []OrderbookLevel `json:"no"`
}

// Trade is one executed cross.
type Trade struct {
	TradeID     string `json:"trade_id"`
	Ticker      string `json:"ticker"`
	Count       int64  `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	TakerSide   string `json:"taker_side"`
	CreatedTime string `json:"created_time"`
}

// Candlestick aggregates trade activity over one period.
type Candlestick struct {
	EndPeriodTS  int64 `json:"end_period_ts"`
	OpenInterest int64 `json:"open_interest"`
	Volume       int64 `json:"volume"`
	Price        struct {
		Open  int `json:"open"`
		High  int `json:"high"`
		Low   int `json:"low"`
		Close int `json:"close"`
	} `json:"price"`
	YesBid struct {
		Open  int `json:"open"`
		High  int `json:"high"`
		Low   int `json:"low"`
		Close int `json:"close"`
	} `json:"yes_bid"`
	YesAsk struct {
		Open  int `json:"open"`
		High  int `json:"high"`
		Low   int `json:"low"`
		Close int `json:"close"`
	} `json:"yes_ask"`
}

// EventCandlesticks is aggregated price history for every market in an
// event. MarketTickers and Candlesticks are parallel slices.
type EventCandlesticks struct {
	MarketTickers []string        `json:"market_tickers"`
	Candlesticks  [][]Candlestick `json:"market_candlesticks"`
}

// EventMetadata carries display and settlement details for an event.
type EventMetadata struct {
	ImageURL          string             `json:"image_url"`
	SettlementSources []SettlementSource `json:"settlement_sources"`
}

// SettlementSource names one source used to settle an event.
type SettlementSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Quote is one request-for-quote response from the communications API.
type Quote struct {
	ID           string `json:"id"`
	MarketTicker string `json:"market_ticker"`
	EventTicker  string `json:"event_ticker"`
	YesBid       int    `json:"yes_bid"`
	NoBid        int    `json:"no_bid"`
	Status       string `json:"status"`
	CreatedTS    int64  `json:"created_ts"`
}

// Balance is the account's available funds in cents.
type Balance struct {
	Balance int64 `json:"balance"`
	Payout  int64 `json:"payout"`
}

// Position is the account's exposure in one market.
type Position struct {
	Ticker           string `json:"ticker"`
	Position         int64  `json:"position"`
	MarketExposure   int64  `json:"market_exposure"`
	RealizedPnl      int64  `json:"realized_pnl"`
	TotalTradedCents int64  `json:"total_traded"`
	RestingOrders    int64  `json:"resting_orders_count"`
	FeesPaid         int64  `json:"fees_paid"`
}

// Fill is one execution against the account's orders.
type Fill struct {
	FillID      string `json:"fill_id"`
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Action      string `json:"action"`
	Count       int64  `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	IsTaker     bool   `json:"is_taker"`
	CreatedTime string `json:"created_time"`
}

// Order is one resting or historical order.
type Order struct {
	OrderID        string `json:"order_id"`
	ClientOrderID  string `json:"client_order_id"`
	OrderGroupID   string `json:"order_group_id,omitempty"`
	Ticker         string `json:"ticker"`
	Side           string `json:"side"`
	Action         string `json:"action"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	YesPrice       int    `json:"yes_price"`
	NoPrice        int    `json:"no_price"`
	InitialCount   int64  `json:"initial_count"`
	RemainingCount int64  `json:"remaining_count"`
	FillCount      int64  `json:"fill_count"`
	QueuePosition  int64  `json:"queue_position,omitempty"`
	ExpirationTime string `json:"expiration_time,omitempty"`
	CreatedTime    string `json:"created_time"`
}

// OrderRequest creates one order. ClientOrderID is filled with a fresh UUID
// when left empty, so a network failure can be reconciled against the
// exchange instead of blindly resubmitted.
type OrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Type          string `json:"type"`
	Count         int64  `json:"count"`
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
	ExpirationTS  int64  `json:"expiration_ts,omitempty"`
	BuyMaxCost    int64  `json:"buy_max_cost,omitempty"`
	OrderGroupID  string `json:"order_group_id,omitempty"`
	PostOnly      bool   `json:"post_only,omitempty"`
}

// AmendRequest moves an order to a new price and count.
type AmendRequest struct {
	Action               string `json:"action"`
	ClientOrderID        string `json:"client_order_id"`
	Count                int64  `json:"count"`
	Side                 string `json:"side"`
	Ticker               string `json:"ticker"`
	YesPrice             int    `json:"yes_price,omitempty"`
	NoPrice              int    `json:"no_price,omitempty"`
	UpdatedClientOrderID string `json:"updated_client_order_id"`
}

// DecreaseRequest reduces an order's resting size without losing queue
// position.
type DecreaseRequest struct {
	ReduceBy int64 `json:"reduce_by,omitempty"`
	ReduceTo int64 `json:"reduce_to,omitempty"`
}

// Settlement is the final accounting of one settled market position.
type Settlement struct {
	Ticker       string `json:"ticker"`
	MarketResult string `json:"market_result"`
	YesCount     int64  `json:"yes_count"`
	YesTotalCost int64  `json:"yes_total_cost"`
	NoCount      int64  `json:"no_count"`
	NoTotalCost  int64  `json:"no_total_cost"`
	Revenue      int64  `json:"revenue"`
	SettledTime  string `json:"settled_time"`
}

// OrderGroup links orders whose combined exposure is managed together.
type OrderGroup struct {
	OrderGroupID string   `json:"order_group_id"`
	AutoCancel   bool     `json:"auto_cancel"`
	OrderIDs     []string `json:"order_ids,omitempty"`
}

// Cursor-paged list envelopes.
type (
	marketsResponse struct {
		Markets []Market `json:"markets"`
		Cursor  string   `json:"cursor"`
	}
	marketResponse struct {
		Market Market `json:"market"`
	}
	orderbookResponse struct {
		Orderbook Orderbook `json:"orderbook"`
	}
	tradesResponse struct {
		Trades []Trade `json:"trades"`
		Cursor string  `json:"cursor"`
	}
	candlesticksResponse struct {
		Candlesticks []Candlestick `json:"candlesticks"`
	}
	eventsResponse struct {
		Events []MarketEvent `json:"events"`
		Cursor string        `json:"cursor"`
	}
	eventResponse struct {
		Event   MarketEvent `json:"event"`
		Markets []Market    `json:"markets"`
	}
	seriesListResponse struct {
		Series []Series `json:"series"`
	}
	seriesResponse struct {
		Series Series `json:"series"`
	}
	balanceResponse = Balance
	positionsResponse struct {
		MarketPositions []Position `json:"market_positions"`
		Cursor          string     `json:"cursor"`
	}
	fillsResponse struct {
		Fills  []Fill `json:"fills"`
		Cursor string `json:"cursor"`
	}
	ordersResponse struct {
		Orders []Order `json:"orders"`
		Cursor string  `json:"cursor"`
	}
	orderResponse struct {
		Order Order `json:"order"`
	}
	batchOrdersRequest struct {
		Orders []OrderRequest `json:"orders"`
	}
	batchOrdersResponse struct {
		Orders []Order `json:"orders"`
	}
	batchCancelRequest struct {
		IDs []string `json:"ids"`
	}
	batchCancelResponse struct {
		Orders []Order `json:"orders"`
	}
	settlementsResponse struct {
		Settlements []Settlement `json:"settlements"`
		Cursor      string       `json:"cursor"`
	}
	orderGroupsResponse struct {
		OrderGroups []OrderGroup `json:"order_groups"`
	}
	orderGroupResponse struct {
		OrderGroup OrderGroup `json:"order_group"`
	}
	queuePositionResponse struct {
		QueuePosition int64 `json:"queue_position"`
	}
	announcementsResponse struct {
		Announcements []Announcement `json:"announcements"`
	}
	quotesResponse struct {
		Quotes []Quote `json:"quotes"`
		Cursor string  `json:"cursor"`
	}
)
