package exchange

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/markets", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"markets": []map[string]string{
				{"ticker": "PRES-2024", "title": "Will Trump win the 2024 Presidential Election?"},
				{"ticker": "FED-DEC25", "title": "Fed cuts rates in December 2025?"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	markets, err := c.SearchMarkets(context.Background(), MarketStatusOpen, 200)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "PRES-2024", markets[0].Ticker)
}

func TestSignedRequestHeaders(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := NewSigner("key-1", key)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get(HeaderAccessKey))

		tsHeader := r.Header.Get(HeaderAccessTimestamp)
		assert.NotEmpty(t, tsHeader)
		_, err := strconv.ParseInt(tsHeader, 10, 64)
		assert.NoError(t, err)

		sig, err := base64.StdEncoding.DecodeString(r.Header.Get(HeaderAccessSignature))
		if assert.NoError(t, err) {
			digest := sha256.Sum256([]byte(tsHeader + http.MethodGet + "/trade-api/v2/portfolio/balance"))
			assert.NoError(t, rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{
				SaltLength: rsa.PSSSaltLengthEqualsHash,
			}))
		}

		_ = json.NewEncoder(w).Encode(map[string]int64{"balance": 123456})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, signer)
	bal, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123456), bal.BalanceCents)
}

func TestCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/trade-api/v2/portfolio/orders", r.URL.Path)

			var req OrderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "PRES-2024", req.Ticker)
			assert.Equal(t, ActionBuy, req.Action)
			assert.Equal(t, OrderSideYes, req.Side)
			assert.Equal(t, 25, req.Count)
			assert.Equal(t, OrderTypeMarket, req.Type)
			assert.NotEmpty(t, req.ClientOrderID)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"order": map[string]string{"order_id": "ord-1", "ticker": req.Ticker, "status": "executed"},
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		order, err := c.CreateOrder(context.Background(), OrderRequest{
			Ticker:        "PRES-2024",
			Action:        ActionBuy,
			Side:          OrderSideYes,
			Count:         25,
			Type:          OrderTypeMarket,
			ClientOrderID: "client-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ord-1", order.OrderID)
	})

	t.Run("api error decoded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"insufficient_balance","message":"not enough funds"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		_, err := c.CreateOrder(context.Background(), OrderRequest{Ticker: "T"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not enough funds")
		assert.Contains(t, err.Error(), "insufficient_balance")
	})

	t.Run("no retry on server error", func(t *testing.T) {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		_, err := c.CreateOrder(context.Background(), OrderRequest{Ticker: "T"})
		require.Error(t, err)
		assert.Equal(t, 1, calls, "order placement must not be retried")
	})
}

func TestGetBalanceRetriesServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"balance": 99})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	bal, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(99), bal.BalanceCents)
	assert.Equal(t, 3, calls)
}
