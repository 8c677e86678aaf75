package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 交易方向：预测市场合约的 YES / NO 两侧
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// ParsedTrade 从链上交易解析出的结构化交易
// 由 IncomingEvent 确定性推导，无独立生命周期
type ParsedTrade struct {
	Market        string          `json:"market"`        // 市场描述文本（来自交易 description）
	Side          Side            `json:"side"`          // YES / NO
	Amount        decimal.Decimal `json:"amount"`        // 交易金额（USD）
	Price         decimal.Decimal `json:"price"`         // 成交价格（无行情时为占位价）
	WalletAddress string          `json:"walletAddress"` // 被跟单钱包地址（fee payer）
	Signature     string          `json:"signature"`     // 链上交易签名（全局唯一，用于去重）
	Timestamp     time.Time       `json:"timestamp"`     // 交易时间
}

// Key 返回交易的唯一键（用于去重）
func (t *ParsedTrade) Key() string {
	return t.Signature
}
