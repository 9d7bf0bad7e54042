package model

import "time"

// PoolMetrics summarises pool activity over a replay window. NominalFee1 and
// NominalFee2 are floor(in*3/1000) summed over swap inputs, not the exact
// amount the pool retained.
type PoolMetrics struct {
	PoolAddress   string    `json:"pool_address"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	SwapCount     uint64    `json:"swap_count"`
	ProvideCount  uint64    `json:"provide_count"`
	WithdrawCount uint64    `json:"withdraw_count"`
	Volume1       string    `json:"volume1"`
	Volume2       string    `json:"volume2"`
	NominalFee1   string    `json:"nominal_fee1"`
	NominalFee2   string    `json:"nominal_fee2"`
	FeeRate1      *string   `json:"fee_rate1,omitempty"`
	FeeRate2      *string   `json:"fee_rate2,omitempty"`
	Reserve1      string    `json:"reserve1"`
	Reserve2      string    `json:"reserve2"`
	TotalShares   string    `json:"total_shares"`
	Price         string    `json:"price"`
}
