package model

// PoolSnapshot is the full state of a pool. Quantities are base-10 strings.
type PoolSnapshot struct {
	Address     string       `json:"address"`
	Asset1      string       `json:"asset1"`
	Asset2      string       `json:"asset2"`
	Reserve1    string       `json:"reserve1"`
	Reserve2    string       `json:"reserve2"`
	TotalShares string       `json:"total_shares"`
	Shares      []ShareEntry `json:"shares"`
}

// ShareEntry is one participant's share balance.
type ShareEntry struct {
	Account string `json:"account"`
	Shares  string `json:"shares"`
}

// LedgerSnapshot holds every non-zero balance and allowance of a ledger.
type LedgerSnapshot struct {
	Balances   []BalanceEntry   `json:"balances"`
	Allowances []AllowanceEntry `json:"allowances"`
}

type BalanceEntry struct {
	Asset   string `json:"asset"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type AllowanceEntry struct {
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}
