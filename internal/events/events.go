package events

// IncomingEvent is one enhanced-transaction notification as delivered by the
// webhook provider. It is immutable: the same event may be redelivered with
// identical content, and dedup happens on Signature.
type IncomingEvent struct {
	Signature      string          `json:"signature"`
	Timestamp      int64           `json:"timestamp"` // unix seconds
	Type           string          `json:"type,omitempty"`
	Source         string          `json:"source,omitempty"`
	Description    string          `json:"description,omitempty"`
	FeePayer       string          `json:"feePayer"`
	Side           string          `json:"side,omitempty"`   // optional explicit side, overrides text heuristics
	Amount         float64         `json:"amount,omitempty"` // raw amount fallback
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`
	Events         *NestedEvents   `json:"events,omitempty"`
	Instructions   []Instruction   `json:"instructions,omitempty"`
}

// TokenTransfer is one SPL token movement inside the transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
	Mint            string  `json:"mint"`
}

// NestedEvents carries the provider's decoded sub-events. Only the swap
// event matters to the pipeline.
type NestedEvents struct {
	Swap *SwapEvent `json:"swap,omitempty"`
}

// SwapEvent is the decoded swap leg of the transaction.
type SwapEvent struct {
	TokenOutputs []SwapTokenOutput `json:"tokenOutputs,omitempty"`
}

// SwapTokenOutput is one output leg of a swap.
type SwapTokenOutput struct {
	Mint        string  `json:"mint"`
	TokenAmount float64 `json:"tokenAmount"`
}

// Instruction identifies one program invocation in the transaction.
type Instruction struct {
	ProgramID string `json:"programId"`
}
