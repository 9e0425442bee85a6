package kalshi

import (
	"context"

	"github.com/google/uuid"

	"kalshigo/pkg/core"
)

const portfolioPath = core.APIBasePath + "/portfolio"

// GetBalance fetches the account's available balance in cents.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	var out balanceResponse
	if err := c.get(ctx, portfolioPath+"/balance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPositions lists the account's market positions.
func (c *Client) GetPositions(ctx context.Context, ticker string, limit int, cursor string) ([]Position, string, error) {
	q := core.Params{}
	if ticker != "" {
		q["ticker"] = ticker
	}
	if limit > 0 {
		q["limit"] = limit
	}
	if cursor != "" {
		q["cursor"] = cursor
	}
	var out positionsResponse
	if err := c.get(ctx, portfolioPath+"/positions", q, &out); err != nil {
		return nil, "", err
	}
	return out.MarketPositions, out.Cursor, nil
}

// GetFills lists the account's executions.
func (c *Client) GetFills(ctx context.Context, ticker, orderID string, limit int, cursor string) ([]Fill, string, error) {
	q := core.Params{}
	if ticker != "" {
		q["ticker"] = ticker
	}
	if orderID != "" {
		q["order_id"] = orderID
	}
	if limit > 0 {
		q["limit"] = limit
	}
	if cursor != "" {
		q["cursor"] = cursor
	}
	var out fillsResponse
	if err := c.get(ctx, portfolioPath+"/fills", q, &out); err != nil {
		return nil, "", err
	}
	return out.Fills, out.Cursor, nil
}

// OrdersParams filters a GetOrders listing.
type OrdersParams struct {
	Ticker      string
	EventTicker string
	Status      string
	Limit       int
	Cursor      string
}

func (p *OrdersParams) query() core.Params {
	q := core.Params{}
	if p == nil {
		return q
	}
	if p.Ticker != "" {
		q["ticker"] = p.Ticker
	}
	if p.EventTicker != "" {
		q["event_ticker"] = p.EventTicker
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	if p.Limit > 0 {
		q["limit"] = p.Limit
	}
	if p.Cursor != "" {
		q["cursor"] = p.Cursor
	}
	return q
}

// GetOrders lists the account's orders.
func (c *Client) GetOrders(ctx context.Context, params *OrdersParams) ([]Order, string, error) {
	var out ordersResponse
	if err := c.get(ctx, portfolioPath+"/orders", params.query(), &out); err != nil {
		return nil, "", err
	}
	return out.Orders, out.Cursor, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var out orderResponse
	if err := c.get(ctx, portfolioPath+"/orders/"+orderID, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CreateOrder submits one order. A missing ClientOrderID is filled with a
// fresh UUID before sending. Submission is never retried automatically: on a
// transport error the order may or may not exist exchange-side, and the
// client order id is the caller's handle for reconciliation.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	var out orderResponse
	if err := c.post(ctx, portfolioPath+"/orders", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// AmendOrder moves an order to a new price and count. The exchange treats an
// amend as cancel-and-replace, so queue position is lost.
func (c *Client) AmendOrder(ctx context.Context, orderID string, req AmendRequest) (*Order, error) {
	if req.UpdatedClientOrderID == "" {
		req.UpdatedClientOrderID = uuid.NewString()
	}
	var out struct {
		OldOrder Order `json:"old_order"`
		Order    Order `json:"order"`
	}
	if err := c.post(ctx, portfolioPath+"/orders/"+orderID+"/amend", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// DecreaseOrder shrinks an order's resting size in place, keeping queue
// position.
func (c *Client) DecreaseOrder(ctx context.Context, orderID string, req DecreaseRequest) (*Order, error) {
	var out orderResponse
	if err := c.post(ctx, portfolioPath+"/orders/"+orderID+"/decrease", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CancelOrder cancels one resting order and returns its final state.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	var out orderResponse
	if err := c.del(ctx, portfolioPath+"/orders/"+orderID, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// BatchCreateOrders submits up to 20 orders in one request. The batch still
// consumes a single pacing permit; per-order outcomes come back positionally.
func (c *Client) BatchCreateOrders(ctx context.Context, reqs []OrderRequest) ([]Order, error) {
	for i := range reqs {
		if reqs[i].ClientOrderID == "" {
			reqs[i].ClientOrderID = uuid.NewString()
		}
	}
	var out batchOrdersResponse
	if err := c.post(ctx, portfolioPath+"/orders/batched", batchOrdersRequest{Orders: reqs}, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// BatchCancelOrders cancels up to 20 orders in one request.
func (c *Client) BatchCancelOrders(ctx context.Context, orderIDs []string) ([]Order, error) {
	var out batchCancelResponse
	if err := c.del(ctx, portfolioPath+"/orders/batched", batchCancelRequest{IDs: orderIDs}, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// GetOrderQueuePosition reports how many resting contracts are ahead of the
// order at its price level.
func (c *Client) GetOrderQueuePosition(ctx context.Context, orderID string) (int64, error) {
	var out queuePositionResponse
	if err := c.get(ctx, portfolioPath+"/orders/"+orderID+"/queue_position", nil, &out); err != nil {
		return 0, err
	}
	return out.QueuePosition, nil
}

// CreateOrderGroup creates a group whose member orders are cancelled together
// when autoCancel is set and any member fills.
func (c *Client) CreateOrderGroup(ctx context.Context, autoCancel bool) (*OrderGroup, error) {
	var out orderGroupResponse
	body := map[string]any{"auto_cancel": autoCancel}
	if err := c.post(ctx, portfolioPath+"/order_groups", body, &out); err != nil {
		return nil, err
	}
	return &out.OrderGroup, nil
}

// GetOrderGroups lists the account's order groups.
func (c *Client) GetOrderGroups(ctx context.Context) ([]OrderGroup, error) {
	var out orderGroupsResponse
	if err := c.get(ctx, portfolioPath+"/order_groups", nil, &out); err != nil {
		return nil, err
	}
	return out.OrderGroups, nil
}

// CancelOrderGroup cancels every resting order in the group.
func (c *Client) CancelOrderGroup(ctx context.Context, groupID string) error {
	return c.del(ctx, portfolioPath+"/order_groups/"+groupID, nil, nil)
}

// GetSettlements lists settled positions.
func (c *Client) GetSettlements(ctx context.Context, limit int, cursor string) ([]Settlement, string, error) {
	q := core.Params{}
	if limit > 0 {
		q["limit"] = limit
	}
	if cursor != "" {
		q["cursor"] = cursor
	}
	var out settlementsResponse
	if err := c.get(ctx, portfolioPath+"/settlements", q, &out); err != nil {
		return nil, "", err
	}
	return out.Settlements, out.Cursor, nil
}
