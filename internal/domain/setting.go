package domain

import "github.com/shopspring/decimal"

// CopySetting 跟单配置：一个 follower 对一个 trader 钱包的复制规则
// 由 SettingsStore 持有，用户操作修改；对管道只读
type CopySetting struct {
	FollowerID     string          `json:"followerId"`         // 跟单用户 ID
	TraderID       string          `json:"traderId"`           // 被跟单钱包地址
	IsActive       bool            `json:"isActive"`           // 暂停/启用
	AllocationUSD  decimal.Decimal `json:"allocationUsd"`      // 分配资金（USD）
	MaxPositionPct decimal.Decimal `json:"maxPositionPercent"` // 单笔最大仓位占比（0-100）
}

// MaxPosition 单笔最大仓位（USD）= allocation * pct / 100
func (s *CopySetting) MaxPosition() decimal.Decimal {
	return s.AllocationUSD.Mul(s.MaxPositionPct).Div(decimal.NewFromInt(100))
}
