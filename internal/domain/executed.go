package domain

import "time"

// TradeStatus 执行状态机的状态
// PENDING 为隐式初始态，离开 PENDING 后终态不可变
type TradeStatus string

const (
	StatusPending  TradeStatus = "PENDING"
	StatusExecuted TradeStatus = "EXECUTED"
	StatusFailed   TradeStatus = "FAILED"
)

// FailureKind 失败类别
// 上层依赖该字段区分"没有匹配市场"和一般性失败
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureNoMarketMatch       FailureKind = "no_market_match"
	FailureInsufficientBalance FailureKind = "insufficient_balance"
	FailureExchangeError       FailureKind = "exchange_error"
	FailureUnknown             FailureKind = "unknown"
)

// ExecutedTrade 跟单执行审计记录
// 每个通过去重的 (wallet, signature) 至多创建一条；append-only
type ExecutedTrade struct {
	ID            string       `json:"id"`
	OriginalTrade ParsedTrade  `json:"originalTrade"`
	Decision      CopyDecision `json:"decision"`
	Status        TradeStatus  `json:"status"`
	ExecutedAt    *time.Time   `json:"executedAt,omitempty"`
	Error         string       `json:"error,omitempty"`
	FailureKind   FailureKind  `json:"failureKind,omitempty"`
	OrderID       string       `json:"orderId,omitempty"`
	MatchedTicker string       `json:"matchedTicker,omitempty"`
	IsSimulation  bool         `json:"isSimulation"`
}
