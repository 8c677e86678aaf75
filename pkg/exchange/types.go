package exchange

// Header names for signed requests.
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Order actions and sides on the exchange.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"

	OrderSideYes = "yes"
	OrderSideNo  = "no"

	OrderTypeMarket = "market"

	MarketStatusOpen = "open"
)

// Market is one tradeable market as returned by the exchange.
type Market struct {
	Ticker   string `json:"ticker"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type marketsResponse struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// Balance is the available portfolio balance in cents.
type Balance struct {
	BalanceCents int64 `json:"balance"`
}

// OrderRequest is the body of a create-order call.
type OrderRequest struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
	ClientOrderID string `json:"client_order_id"`
}

// Order is the exchange's record of a placed order.
type Order struct {
	OrderID string `json:"order_id"`
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
