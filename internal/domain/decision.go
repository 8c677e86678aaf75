package domain

import "github.com/shopspring/decimal"

// 不跟单原因
const (
	ReasonNotFollowed = "not followed"
	ReasonPaused      = "paused"
	ReasonTooSmall    = "too small"
)

// CopyDecision 跟单决策：是否复制以及复制多少
// 每次调用新算，不独立持久化
type CopyDecision struct {
	ShouldCopy   bool            `json:"shouldCopy"`
	Reason       string          `json:"reason,omitempty"`       // 不跟单时的原因
	PositionSize decimal.Decimal `json:"positionSize,omitempty"` // 跟单金额（USD）
	Settings     *CopySetting    `json:"settings,omitempty"`     // 命中的配置
}
