package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fxterm/trading-client/internal/config"
	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
	"github.com/google/uuid"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_pricesBatchURL = "/prices/batch"
	_accountsURL    = "/trading-accounts/user/{userId}"
	_openTradesURL  = "/trade/open/{accountId}"
	_pendingURL     = "/trade/pending/{accountId}"
	_historyURL     = "/trade/history/{accountId}"
	_summaryURL     = "/trade/summary/{accountId}"
	_openOrderURL   = "/trade/open"
	_modifyURL      = "/trade/modify"
	_closeURL       = "/trade/close"
	_cancelURL      = "/trade/cancel"

	_requestIDHeader = "X-Request-Id"
)

// Client speaks the trading backend's HTTP JSON contract. Mutating order
// calls go through a shared rate limiter so a misbehaving caller can't flood
// the order endpoints.
type Client struct {
	c *resty.Client

	ordersRateLimiter ratelimit.Limiter // 120 T/M

	logger logger.Logger
}

func NewClient(cfg config.BackendConfig, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout)

	return &Client{
		c:                 client,
		ordersRateLimiter: ratelimit.New(120, ratelimit.Per(time.Minute)),
		logger:            logger,
	}
}

func (c *Client) Close() error {
	return c.c.Close()
}

// BatchPrices requests quotes for the given symbols. Symbols with a null bid
// in the response are dropped so the caller's merge keeps its cached quote.
func (c *Client) BatchPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	req := c.c.R().
		SetBody(batchPricesRequest{Symbols: symbols}).
		SetResult(&pricesResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Post(_pricesBatchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send batch prices request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		r := resp.Result().(*pricesResponse)
		return r.Success, ""
	})
	if err != nil {
		return nil, err
	}

	return toQuotes(result.(*pricesResponse).Prices, time.Now()), nil
}

func (c *Client) Accounts(ctx context.Context, userID string) ([]model.Account, error) {
	req := c.c.R().
		SetPathParam("userId", userID).
		SetResult(&accountsResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_accountsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send accounts request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) { return true, "" })
	if err != nil {
		return nil, err
	}

	return result.(*accountsResponse).Accounts, nil
}

func (c *Client) OpenPositions(ctx context.Context, accountID string) ([]model.Position, error) {
	req := c.c.R().
		SetPathParam("accountId", accountID).
		SetResult(&positionsResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_openTradesURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send open positions request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		return resp.Result().(*positionsResponse).Success, ""
	})
	if err != nil {
		return nil, err
	}

	return result.(*positionsResponse).Trades, nil
}

func (c *Client) PendingOrders(ctx context.Context, accountID string) ([]model.PendingOrder, error) {
	req := c.c.R().
		SetPathParam("accountId", accountID).
		SetResult(&pendingResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_pendingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send pending orders request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		return resp.Result().(*pendingResponse).Success, ""
	})
	if err != nil {
		return nil, err
	}

	return result.(*pendingResponse).Trades, nil
}

func (c *Client) TradeHistory(ctx context.Context, accountID string, limit int) ([]model.ClosedTrade, error) {
	req := c.c.R().
		SetPathParam("accountId", accountID).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&historyResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_historyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send trade history request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		return resp.Result().(*historyResponse).Success, ""
	})
	if err != nil {
		return nil, err
	}

	return result.(*historyResponse).Trades, nil
}

// Summary passes the client's best-known quotes along so the backend computes
// floating P&L against the same prices the client derives from.
func (c *Client) Summary(ctx context.Context, accountID string, quotes map[string]model.Quote) (model.AccountSummary, error) {
	prices, err := sonic.MarshalString(quotes)
	if err != nil {
		return model.AccountSummary{}, fmt.Errorf("%w: can't marshal quotes", err)
	}

	req := c.c.R().
		SetPathParam("accountId", accountID).
		SetQueryParam("prices", prices).
		SetResult(&summaryResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_summaryURL)
	if err != nil {
		return model.AccountSummary{}, fmt.Errorf("%w: can't send summary request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		return resp.Result().(*summaryResponse).Success, ""
	})
	if err != nil {
		return model.AccountSummary{}, err
	}

	return result.(*summaryResponse).Summary, nil
}

func (c *Client) OpenOrder(ctx context.Context, order OpenOrderRequest) error {
	c.ordersRateLimiter.Take()
	req := c.c.R().
		SetHeader(_requestIDHeader, uuid.NewString()).
		SetBody(order).
		SetResult(&envelope{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Post(_openOrderURL)
	if err != nil {
		return fmt.Errorf("%w: can't send open order request", err)
	}
	defer resp.Body.Close()

	if _, err := c.check(resp, func() (bool, string) {
		r := resp.Result().(*envelope)
		return r.Success, r.Message
	}); err != nil {
		return err
	}

	return nil
}

func (c *Client) ModifyOrder(ctx context.Context, tradeID string, sl, tp *float64) error {
	c.ordersRateLimiter.Take()
	req := c.c.R().
		SetHeader(_requestIDHeader, uuid.NewString()).
		SetBody(modifyRequest{TradeID: tradeID, StopLoss: sl, TakeProfit: tp}).
		SetResult(&envelope{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Put(_modifyURL)
	if err != nil {
		return fmt.Errorf("%w: can't send modify request", err)
	}
	defer resp.Body.Close()

	if _, err := c.check(resp, func() (bool, string) {
		r := resp.Result().(*envelope)
		return r.Success, r.Message
	}); err != nil {
		return err
	}

	return nil
}

// ClosePosition returns the realized P&L reported by the backend.
func (c *Client) ClosePosition(ctx context.Context, tradeID string, bid, ask float64) (float64, error) {
	c.ordersRateLimiter.Take()
	req := c.c.R().
		SetHeader(_requestIDHeader, uuid.NewString()).
		SetBody(closeRequest{TradeID: tradeID, Bid: bid, Ask: ask}).
		SetResult(&closeResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Post(_closeURL)
	if err != nil {
		return 0, fmt.Errorf("%w: can't send close request", err)
	}
	defer resp.Body.Close()

	result, err := c.check(resp, func() (bool, string) {
		r := resp.Result().(*closeResponse)
		return r.Success, r.Message
	})
	if err != nil {
		return 0, err
	}

	return result.(*closeResponse).Trade.RealizedPnl, nil
}

func (c *Client) CancelOrder(ctx context.Context, tradeID string) error {
	c.ordersRateLimiter.Take()
	req := c.c.R().
		SetHeader(_requestIDHeader, uuid.NewString()).
		SetBody(cancelRequest{TradeID: tradeID}).
		SetResult(&envelope{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Post(_cancelURL)
	if err != nil {
		return fmt.Errorf("%w: can't send cancel request", err)
	}
	defer resp.Body.Close()

	if _, err := c.check(resp, func() (bool, string) {
		r := resp.Result().(*envelope)
		return r.Success, r.Message
	}); err != nil {
		return err
	}

	return nil
}

// check maps a resty response onto the error taxonomy: transport-level
// errors are wrapped, non-2xx answers carry the backend's error text, and a
// 2xx answer with success=false is a business rejection.
func (c *Client) check(resp *resty.Response, success func() (bool, string)) (interface{}, error) {
	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		response := resp.Error().(*errorResponse)
		return nil, fmt.Errorf("%s: backend request error", response.text())
	}
	if resp.IsSuccess() {
		ok, message := success()
		if !ok {
			if message == "" {
				message = "request rejected"
			}
			return nil, &RejectionError{Message: message}
		}
		return resp.Result(), nil
	}

	return nil, fmt.Errorf("unexpected backend response: %s", resp.Status())
}
