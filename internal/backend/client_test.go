package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fxterm/trading-client/internal/config"
	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// every fixture answers JSON; set the header so it isn't sniffed as
		// text/plain, which the client's decoder would ignore
		w.Header().Set("Content-Type", "application/json")
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.BackendConfig{Address: srv.URL, Timeout: 0}, logger.NopLogger{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBatchPricesDropsNullBids(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/prices/batch", r.URL.Path)

		var body struct {
			Symbols []string `json:"symbols"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"EURUSD", "XAUUSD", "BTCUSD"}, body.Symbols)

		_, _ = w.Write([]byte(`{
			"success": true,
			"prices": {
				"EURUSD": {"bid": 1.1005, "ask": 1.1007},
				"XAUUSD": {"bid": null, "ask": 2400.5},
				"BTCUSD": {"bid": 64000.0, "ask": 64010.0}
			}
		}`))
	}))

	quotes, err := c.BatchPrices(context.Background(), []string{"EURUSD", "XAUUSD", "BTCUSD"})
	require.NoError(t, err)

	// the null-bid symbol must be absent so the caller's cache survives
	assert.Len(t, quotes, 2)
	assert.NotContains(t, quotes, "XAUUSD")
	assert.Equal(t, 1.1005, quotes["EURUSD"].Bid)
	assert.Equal(t, 64010.0, quotes["BTCUSD"].Ask)
	assert.False(t, quotes["EURUSD"].UpdatedAt.IsZero())
}

func TestOpenOrderBusinessRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		_, _ = w.Write([]byte(`{"success": false, "message": "Insufficient margin"}`))
	}))

	err := c.OpenOrder(context.Background(), OpenOrderRequest{Symbol: "EURUSD", Quantity: 0.01})
	require.Error(t, err)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "Insufficient margin", rejection.Message)
}

func TestClosePositionReturnsRealizedPnl(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade/close", r.URL.Path)

		var body struct {
			TradeID string  `json:"tradeId"`
			Bid     float64 `json:"bid"`
			Ask     float64 `json:"ask"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1", body.TradeID)
		assert.Equal(t, 1.1015, body.Bid)

		_, _ = w.Write([]byte(`{"success": true, "trade": {"realizedPnl": 0.87}}`))
	}))

	realized, err := c.ClosePosition(context.Background(), "t1", 1.1015, 1.1017)
	require.NoError(t, err)
	assert.Equal(t, 0.87, realized)
}

func TestSummaryPassesPricesParam(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade/summary/acc-a", r.URL.Path)

		var prices map[string]model.Quote
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("prices")), &prices))
		assert.Equal(t, 1.1005, prices["EURUSD"].Bid)

		_, _ = w.Write([]byte(`{"success": true, "summary": {"balance": 5000, "credit": 100, "equity": 5101}}`))
	}))

	summary, err := c.Summary(context.Background(), "acc-a", map[string]model.Quote{
		"EURUSD": {Bid: 1.1005, Ask: 1.1007},
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, summary.Balance)
	assert.Equal(t, 100.0, summary.Credit)
}

func TestTradeHistoryLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade/history/acc-a", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success": true, "trades": [{"id": "h1", "realizedPnl": 3.5}]}`))
	}))

	trades, err := c.TradeHistory(context.Background(), "acc-a", 25)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 3.5, trades[0].RealizedPnl)
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "error": "database unavailable"}`))
	}))

	_, err := c.OpenPositions(context.Background(), "acc-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestCancelOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade/cancel", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))

	require.NoError(t, c.CancelOrder(context.Background(), "p1"))
}

func TestModifyOrderNullsClear(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "t1", body["tradeId"])
		assert.Nil(t, body["sl"])
		assert.Equal(t, 1.15, body["tp"])

		_, _ = w.Write([]byte(`{"success": true}`))
	}))

	tp := 1.15
	require.NoError(t, c.ModifyOrder(context.Background(), "t1", nil, &tp))
}
