package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/copybet/pkg/ratelimit"
)

const (
	basePath = "/trade-api/v2"

	pathMarkets = basePath + "/markets"
	pathBalance = basePath + "/portfolio/balance"
	pathOrders  = basePath + "/portfolio/orders"
)

// Client is the signed REST client for the exchange. All calls carry
// bounded timeouts via the passed context plus the resty client timeout.
type Client struct {
	http    *resty.Client
	signer  *Signer
	limiter *ratelimit.RateLimitManager
}

// NewClient builds a client for host (e.g. https://api.exchange.example).
// The signer may be nil only for read-only demo use against public
// endpoints; order placement requires it.
func NewClient(host string, signer *Signer) *Client {
	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(host, "/")).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// 只对读请求的 5xx/限流重试；下单不重试（由上层状态机记失败）
			if resp == nil || resp.Request == nil {
				return err != nil
			}
			if resp.Request.Method == http.MethodPost {
				return false
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})

	return &Client{
		http:    httpClient,
		signer:  signer,
		limiter: ratelimit.NewRateLimitManager(),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*resty.Request, error) {
	r := c.http.R().SetContext(ctx)
	r.SetHeader("Accept", "application/json")
	if c.signer != nil {
		ts := time.Now().UnixMilli()
		sig, err := c.signer.Sign(ts, method, path)
		if err != nil {
			return nil, err
		}
		r.SetHeader(HeaderAccessKey, c.signer.KeyID())
		r.SetHeader(HeaderAccessTimestamp, fmt.Sprintf("%d", ts))
		r.SetHeader(HeaderAccessSignature, sig)
	}
	return r, nil
}

// SearchMarkets lists markets filtered by status, up to limit entries.
func (c *Client) SearchMarkets(ctx context.Context, status string, limit int) ([]Market, error) {
	if err := c.limiter.Wait(ctx, "exchange:markets:get"); err != nil {
		return nil, err
	}
	r, err := c.newRequest(ctx, http.MethodGet, pathMarkets)
	if err != nil {
		return nil, err
	}
	var out marketsResponse
	resp, err := r.
		SetQueryParam("status", status).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get(pathMarkets)
	if err != nil {
		return nil, errors.Wrap(err, "search markets")
	}
	if resp.IsError() {
		return nil, apiError("search markets", resp)
	}
	return out.Markets, nil
}

// GetBalance returns the available portfolio balance.
func (c *Client) GetBalance(ctx context.Context) (Balance, error) {
	if err := c.limiter.Wait(ctx, "exchange:balance:get"); err != nil {
		return Balance{}, err
	}
	r, err := c.newRequest(ctx, http.MethodGet, pathBalance)
	if err != nil {
		return Balance{}, err
	}
	var out Balance
	resp, err := r.SetResult(&out).Get(pathBalance)
	if err != nil {
		return Balance{}, errors.Wrap(err, "get balance")
	}
	if resp.IsError() {
		return Balance{}, apiError("get balance", resp)
	}
	return out, nil
}

// CreateOrder places an order and returns the exchange's order record.
// No retries here: a failed placement surfaces as an error and the
// executor records it; retrying blind could double-fill.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := c.limiter.Wait(ctx, "exchange:orders:post"); err != nil {
		return Order{}, err
	}
	r, err := c.newRequest(ctx, http.MethodPost, pathOrders)
	if err != nil {
		return Order{}, err
	}
	var out orderResponse
	resp, err := r.SetBody(req).SetResult(&out).Post(pathOrders)
	if err != nil {
		return Order{}, errors.Wrap(err, "create order")
	}
	if resp.IsError() {
		return Order{}, apiError("create order", resp)
	}
	return out.Order, nil
}

func apiError(op string, resp *resty.Response) error {
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error.Message != "" {
		return errors.Errorf("%s: %s (%s, http %d)", op, body.Error.Message, body.Error.Code, resp.StatusCode())
	}
	return errors.Errorf("%s: http %d: %s", op, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
}
