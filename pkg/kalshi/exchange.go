package kalshi

import (
	"context"

	"kalshigo/pkg/core"
)

// GetExchangeStatus reports whether the exchange and trading are active.
func (c *Client) GetExchangeStatus(ctx context.Context) (*ExchangeStatus, error) {
	var out ExchangeStatus
	if err := c.get(ctx, core.APIBasePath+"/exchange/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExchangeSchedule returns the weekly trading calendar and any scheduled
// maintenance windows.
func (c *Client) GetExchangeSchedule(ctx context.Context) (*ExchangeSchedule, error) {
	var out struct {
		Schedule ExchangeSchedule `json:"schedule"`
	}
	if err := c.get(ctx, core.APIBasePath+"/exchange/schedule", nil, &out); err != nil {
		return nil, err
	}
	return &out.Schedule, nil
}

// GetAnnouncements returns current exchange-wide notices.
func (c *Client) GetAnnouncements(ctx context.Context) ([]Announcement, error) {
	var out announcementsResponse
	if err := c.get(ctx, core.APIBasePath+"/exchange/announcements", nil, &out); err != nil {
		return nil, err
	}
	return out.Announcements, nil
}
