package model

// Operation kinds accepted by the replay runner.
const (
	OpMint     = "mint"
	OpApprove  = "approve"
	OpProvide  = "provide"
	OpWithdraw = "withdraw"
	OpSwap     = "swap"
)

// Operation is one line of a replay script.
type Operation struct {
	Op        string `json:"op"`
	Account   string `json:"account"`
	Asset     string `json:"asset,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Amount1   string `json:"amount1,omitempty"`
	Amount2   string `json:"amount2,omitempty"`
	Shares    string `json:"shares,omitempty"`
	Direction string `json:"direction,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// OperationError records an operation the runner could not apply.
type OperationError struct {
	Seq     uint64 `json:"seq"`
	TxHash  string `json:"tx_hash"`
	Op      string `json:"op"`
	Account string `json:"account"`
	Error   string `json:"error"`
}
