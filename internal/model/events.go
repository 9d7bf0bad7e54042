package model

// LiquidityAddedData is the decoded LiquidityAdded payload.
type LiquidityAddedData struct {
	Participant  string `json:"participant"`
	Amount1      string `json:"amount1"`
	Amount2      string `json:"amount2"`
	SharesMinted string `json:"shares_minted"`
}

// LiquidityRemovedData is the decoded LiquidityRemoved payload.
type LiquidityRemovedData struct {
	Participant  string `json:"participant"`
	Amount1      string `json:"amount1"`
	Amount2      string `json:"amount2"`
	SharesBurned string `json:"shares_burned"`
}

// SwapEventData is the decoded Swap payload.
type SwapEventData struct {
	Participant string `json:"participant"`
	AssetIn     string `json:"asset_in"`
	AssetOut    string `json:"asset_out"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
}
