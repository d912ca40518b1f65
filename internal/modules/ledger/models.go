package ledger

import "time"

// TransactionType distinguishes buys from sells.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// SellType marks whether a sell closed the position or only part of it.
type SellType string

const (
	SellPartial SellType = "partial"
	SellFull    SellType = "full"
)

// Position is the holding in one fund. At most one position exists per fund
// code; a fully liquidated position is removed, never kept at zero shares.
type Position struct {
	FundCode          string  `json:"fund_code"`
	FundName          string  `json:"fund_name,omitempty"`
	Shares            float64 `json:"shares"`
	TotalCost         float64 `json:"total_cost"`
	AvgCost           float64 `json:"avg_cost"`
	CurrentPrice      float64 `json:"current_price"`
	MarketValue       float64 `json:"market_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
}

// Transaction is one immutable buy or sell record.
type Transaction struct {
	ID          string          `json:"id"`
	FundCode    string          `json:"fund_code"`
	FundName    string          `json:"fund_name,omitempty"`
	Type        TransactionType `json:"type"`
	SellType    SellType        `json:"sell_type,omitempty"`
	Shares      float64         `json:"shares"`
	Price       float64         `json:"price"`
	TotalAmount float64         `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AccountSnapshot is the externally visible account state. All derived
// fields are recomputed on every mutation, never carried forward.
type AccountSnapshot struct {
	InitialCapital    float64    `json:"initial_capital"`
	CashBalance       float64    `json:"cash_balance"`
	TotalAssets       float64    `json:"total_assets"`
	ProfitLoss        float64    `json:"profit_loss"`
	ProfitLossPercent float64    `json:"profit_loss_percent"`
	Positions         []Position `json:"positions"`
}

// TradeResult reports the outcome of a buy or sell to the caller. The UI
// branches on Success to decide whether to close its dialog, so failures
// are a value, not a fault.
type TradeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
