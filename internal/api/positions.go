package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ProfileURL returns the public copy-trading profile page for an account.
// It doubles as the Referer for the ecotrade endpoints.
func (c *Client) ProfileURL(uid string) string {
	return c.baseURL + "/copy-trading/account/" + uid + "?tab=trade"
}

// ecotradeQuery builds the query parameters shared by the ecotrade endpoints.
func ecotradeQuery(uid string) url.Values {
	query := url.Values{}
	query.Set("limit", "10")
	query.Set("uniqueName", uid)
	query.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	return query
}

// GetPositions fetches the current open positions for a lead account.
// A returned error is a transport-level or HTTP-level fault; envelope-level
// failures (code != "0") are surfaced by Normalize on the response.
func (c *Client) GetPositions(ctx context.Context, uid string) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.get(ctx, "/priapi/v5/ecotrade/public/positions-v2", c.ProfileURL(uid), ecotradeQuery(uid), &resp); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	return &resp, nil
}

// ResolveNickname fetches the lead trader's display name via the trade-records
// endpoint. Callers substitute their own fallback when this fails.
func (c *Client) ResolveNickname(ctx context.Context, uid string) (string, error) {
	var resp TradeRecordsResponse
	if err := c.get(ctx, "/priapi/v5/ecotrade/public/trade-records", c.ProfileURL(uid), ecotradeQuery(uid), &resp); err != nil {
		return "", fmt.Errorf("get trade records: %w", err)
	}
	if resp.Code != successCode {
		return "", fmt.Errorf("trade records error %s: %s", resp.Code, resp.Msg)
	}
	if len(resp.Data) == 0 || resp.Data[0].NickName == "" {
		return "", fmt.Errorf("no trader profile for %s", uid)
	}
	return resp.Data[0].NickName, nil
}

// GetMarkPrice fetches the current mark price for a SWAP instrument.
func (c *Client) GetMarkPrice(ctx context.Context, instID string) (string, error) {
	query := url.Values{}
	query.Set("instType", "SWAP")
	query.Set("instId", instID)

	var resp MarkPriceResponse
	if err := c.get(ctx, "/api/v5/public/mark-price", "", query, &resp); err != nil {
		return "", fmt.Errorf("get mark price: %w", err)
	}
	if resp.Code != successCode {
		return "", fmt.Errorf("mark price error %s: %s", resp.Code, resp.Msg)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no mark price for %s", instID)
	}
	return resp.Data[0].MarkPx, nil
}
