// Package ledger is the portfolio accounting engine: cash balance, positions
// with a share-weighted average cost basis, and an append-only transaction
// history. All account aggregates are derived and recomputed after every
// mutation.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wangziyue0319-jpg/simulationtrading/pkg/id"
)

// shareEpsilon absorbs float drift from repeated weighted-average updates.
// Selling within this margin of the full balance counts as a full sell, so
// no dust position survives a "sell everything" request.
const shareEpsilon = 1e-9

// Ledger owns one simulated trading account.
type Ledger struct {
	mu             sync.Mutex
	initialCapital float64
	cash           float64
	positions      []*Position
	transactions   []Transaction // newest first
	pricer         PriceProvider
	log            zerolog.Logger
}

// New creates a ledger holding initialCapital in cash.
func New(initialCapital float64, pricer PriceProvider, log zerolog.Logger) *Ledger {
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		pricer:         pricer,
		log:            log.With().Str("service", "ledger").Logger(),
	}
}

// Buy purchases shares of a fund at price. The fund name is carried along
// for display only. Nothing changes on a failed buy.
func (l *Ledger) Buy(fundCode, fundName string, price, shares float64) (TradeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if shares <= 0 {
		return TradeResult{Message: "买入份额必须大于0"}, ErrInvalidShareCount
	}

	// A provider payload without a value resolves to price 0; buying at it
	// would create a position whose AvgCost of 0 turns the P&L into NaN.
	if price <= 0 {
		return TradeResult{Message: "基金净值无效，无法买入"}, ErrInvalidPrice
	}

	cost := shares * price
	if cost > l.cash {
		return TradeResult{
			Message: fmt.Sprintf("余额不足！当前可用资金 %.2f 元", l.cash),
		}, ErrInsufficientFunds
	}

	pos := l.findPosition(fundCode)
	if pos != nil {
		// Share-weighted cost basis across all purchases, not an average
		// of prices: repeated buys at different prices blend correctly.
		pos.TotalCost += cost
		pos.Shares += shares
		pos.AvgCost = pos.TotalCost / pos.Shares
		pos.CurrentPrice = price
		if fundName != "" {
			pos.FundName = fundName
		}
	} else {
		l.positions = append(l.positions, &Position{
			FundCode:     fundCode,
			FundName:     fundName,
			Shares:       shares,
			TotalCost:    cost,
			AvgCost:      price,
			CurrentPrice: price,
		})
	}

	l.cash -= cost
	l.appendTransaction(Transaction{
		FundCode:    fundCode,
		FundName:    fundName,
		Type:        TransactionBuy,
		Shares:      shares,
		Price:       price,
		TotalAmount: cost,
	})
	l.recompute()

	l.log.Info().
		Str("fund", fundCode).
		Float64("shares", shares).
		Float64("price", price).
		Float64("cost", cost).
		Msg("Buy executed")

	return TradeResult{Success: true, Message: "买入成功！"}, nil
}

// Sell disposes shares of a held fund at price. Selling the full remaining
// balance (within epsilon) removes the position; a partial sell reduces the
// cost basis proportionally, which leaves the average cost unchanged.
func (l *Ledger) Sell(fundCode string, price, shares float64) (TradeResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.findPosition(fundCode)
	if pos == nil {
		return TradeResult{Message: "未持有该基金"}, ErrPositionNotFound
	}

	if shares <= 0 {
		return TradeResult{Message: "卖出份额必须大于0"}, ErrInvalidShareCount
	}

	if shares > pos.Shares+shareEpsilon {
		return TradeResult{
			Message: fmt.Sprintf("持有份额不足！最多可卖出 %.2f 份", pos.Shares),
		}, ErrInsufficientShares
	}

	fullSell := pos.Shares-shares <= shareEpsilon
	proceeds := shares * price

	sellType := SellPartial
	message := "卖出成功！"
	if fullSell {
		l.removePosition(fundCode)
		sellType = SellFull
		message = "清仓成功！"
	} else {
		// Cost and shares scale by the same ratio, so AvgCost is
		// invariant under a partial sell.
		ratio := shares / pos.Shares
		pos.TotalCost *= 1 - ratio
		pos.Shares -= shares
		pos.AvgCost = pos.TotalCost / pos.Shares
		pos.CurrentPrice = price
	}

	l.cash += proceeds
	l.appendTransaction(Transaction{
		FundCode:    fundCode,
		FundName:    pos.FundName,
		Type:        TransactionSell,
		SellType:    sellType,
		Shares:      shares,
		Price:       price,
		TotalAmount: proceeds,
	})
	l.recompute()

	l.log.Info().
		Str("fund", fundCode).
		Float64("shares", shares).
		Float64("price", price).
		Bool("full_sell", fullSell).
		Msg("Sell executed")

	return TradeResult{Success: true, Message: message}, nil
}

// UpdatePrices applies one price tick to every held position. Cash and the
// transaction history are never touched here.
func (l *Ledger) UpdatePrices(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range l.positions {
		next, err := l.pricer.NextPrice(ctx, pos.FundCode, pos.CurrentPrice)
		if err != nil {
			l.log.Debug().Err(err).Str("fund", pos.FundCode).Msg("Price tick skipped")
			continue
		}
		pos.CurrentPrice = next
	}

	l.recompute()
}

// Reset restores the account to its initial state. Idempotent.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cash = l.initialCapital
	l.positions = nil
	l.transactions = nil

	l.log.Info().Float64("initial_capital", l.initialCapital).Msg("Account reset")
}

// Snapshot returns the current account state with all aggregates derived
// from scratch. Money amounts are rounded for display, prices keep NAV
// precision.
func (l *Ledger) Snapshot() AccountSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]Position, 0, len(l.positions))
	totalAssets := l.cash
	for _, pos := range l.positions {
		p := *pos
		p.MarketValue = round(p.Shares*p.CurrentPrice, 2)
		p.TotalCost = round(pos.TotalCost, 2)
		p.ProfitLoss = round(p.Shares*p.CurrentPrice-pos.TotalCost, 2)
		p.AvgCost = round(pos.AvgCost, 4)
		p.ProfitLossPercent = round((p.CurrentPrice-pos.AvgCost)/pos.AvgCost*100, 2)
		p.Shares = round(pos.Shares, 2)
		positions = append(positions, p)
		totalAssets += pos.Shares * pos.CurrentPrice
	}

	profitLoss := totalAssets - l.initialCapital
	return AccountSnapshot{
		InitialCapital:    l.initialCapital,
		CashBalance:       round(l.cash, 2),
		TotalAssets:       round(totalAssets, 2),
		ProfitLoss:        round(profitLoss, 2),
		ProfitLossPercent: round(profitLoss/l.initialCapital*100, 2),
		Positions:         positions,
	}
}

// Position returns the raw held position for fundCode, if any.
func (l *Ledger) Position(fundCode string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pos := l.findPosition(fundCode); pos != nil {
		return *pos, true
	}
	return Position{}, false
}

// CashBalance returns the uninvested cash.
func (l *Ledger) CashBalance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Transactions returns the trade history, newest first.
func (l *Ledger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// findPosition returns the held position for fundCode. Callers hold l.mu.
func (l *Ledger) findPosition(fundCode string) *Position {
	for _, pos := range l.positions {
		if pos.FundCode == fundCode {
			return pos
		}
	}
	return nil
}

// removePosition drops the position for fundCode. Callers hold l.mu.
func (l *Ledger) removePosition(fundCode string) {
	for i, pos := range l.positions {
		if pos.FundCode == fundCode {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			return
		}
	}
}

// appendTransaction prepends a stamped record. Callers hold l.mu.
func (l *Ledger) appendTransaction(tx Transaction) {
	tx.ID = id.New()
	tx.CreatedAt = time.Now()
	l.transactions = append([]Transaction{tx}, l.transactions...)
}

// recompute refreshes every derived per-position field. Callers hold l.mu.
func (l *Ledger) recompute() {
	for _, pos := range l.positions {
		pos.AvgCost = pos.TotalCost / pos.Shares
		pos.MarketValue = pos.Shares * pos.CurrentPrice
		pos.ProfitLoss = pos.MarketValue - pos.TotalCost
		pos.ProfitLossPercent = (pos.CurrentPrice - pos.AvgCost) / pos.AvgCost * 100
	}
}

func round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
