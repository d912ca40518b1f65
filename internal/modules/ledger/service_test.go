package ledger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedPriceProvider always returns the same price on a tick.
type fixedPriceProvider struct {
	price float64
}

func (p fixedPriceProvider) NextPrice(_ context.Context, _ string, _ float64) (float64, error) {
	return p.price, nil
}

func newTestLedger(capital float64) *Ledger {
	return New(capital, NewRandomWalkProvider(), zerolog.Nop())
}

func TestBuy_WeightedAverageCost(t *testing.T) {
	l := newTestLedger(100000)

	_, err := l.Buy("F001", "测试基金", 2.0, 100)
	require.NoError(t, err)
	_, err = l.Buy("F001", "测试基金", 3.0, 50)
	require.NoError(t, err)

	pos, ok := l.Position("F001")
	require.True(t, ok)

	// (2.0*100 + 3.0*50) / 150
	assert.InDelta(t, 150.0, pos.Shares, 1e-9)
	assert.InDelta(t, 350.0, pos.TotalCost, 1e-9)
	assert.InDelta(t, 350.0/150.0, pos.AvgCost, 1e-9)
}

func TestBuy_NewPosition(t *testing.T) {
	l := newTestLedger(100000)

	result, err := l.Buy("F001", "测试基金", 2.456, 100)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "买入成功！", result.Message)

	pos, ok := l.Position("F001")
	require.True(t, ok)
	assert.InDelta(t, 100.0, pos.Shares, 1e-9)
	assert.InDelta(t, 245.6, pos.TotalCost, 1e-9)
	assert.InDelta(t, 2.456, pos.AvgCost, 1e-9)
	assert.InDelta(t, 100000-245.6, l.CashBalance(), 1e-9)
}

func TestBuy_InsufficientFundsLeavesAccountUnchanged(t *testing.T) {
	l := newTestLedger(100)
	before := l.Snapshot()

	result, err := l.Buy("F001", "测试基金", 2.0, 1000)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.False(t, result.Success)

	after := l.Snapshot()
	assert.Equal(t, before, after)
	assert.Empty(t, l.Transactions())
}

func TestBuy_RejectsNonPositiveShares(t *testing.T) {
	l := newTestLedger(100000)

	for _, shares := range []float64{0, -10} {
		result, err := l.Buy("F001", "测试基金", 2.0, shares)
		assert.ErrorIs(t, err, ErrInvalidShareCount)
		assert.False(t, result.Success)
	}
	assert.Empty(t, l.Transactions())
}

func TestBuy_RejectsNonPositivePrice(t *testing.T) {
	l := newTestLedger(100000)

	for _, price := range []float64{0, -1.2} {
		result, err := l.Buy("F001", "测试基金", price, 100)
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.False(t, result.Success)
	}

	// No zero-cost position exists to poison the snapshot with NaN
	_, held := l.Position("F001")
	assert.False(t, held)
	assert.Empty(t, l.Transactions())

	snap := l.Snapshot()
	assert.Equal(t, 100000.0, snap.CashBalance)
	assert.Equal(t, 100000.0, snap.TotalAssets)
}

func TestSell_PartialKeepsAvgCost(t *testing.T) {
	l := newTestLedger(100000)

	_, err := l.Buy("F001", "测试基金", 2.0, 100)
	require.NoError(t, err)
	_, err = l.Buy("F001", "测试基金", 3.0, 50)
	require.NoError(t, err)

	before, _ := l.Position("F001")

	result, err := l.Sell("F001", 2.8, 60)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "卖出成功！", result.Message)

	after, ok := l.Position("F001")
	require.True(t, ok)
	assert.InDelta(t, 90.0, after.Shares, 1e-9)
	assert.InDelta(t, before.AvgCost, after.AvgCost, 1e-9)
	// Cost basis reduced proportionally, not by sale proceeds
	assert.InDelta(t, before.TotalCost*(90.0/150.0), after.TotalCost, 1e-9)
}

func TestSell_FullRemovesPosition(t *testing.T) {
	l := newTestLedger(100000)

	_, err := l.Buy("F001", "测试基金", 2.456, 150)
	require.NoError(t, err)

	cashBefore := l.CashBalance()
	result, err := l.Sell("F001", 2.456, 150)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "清仓成功！", result.Message)

	_, ok := l.Position("F001")
	assert.False(t, ok)
	assert.Empty(t, l.Snapshot().Positions)
	assert.InDelta(t, cashBefore+150*2.456, l.CashBalance(), 1e-9)
}

func TestSell_EpsilonFullSellAfterDrift(t *testing.T) {
	l := newTestLedger(100000)

	// Many small buys at awkward prices accumulate float drift
	for i := 0; i < 7; i++ {
		_, err := l.Buy("F001", "测试基金", 1.1, 0.1)
		require.NoError(t, err)
	}

	pos, _ := l.Position("F001")
	result, err := l.Sell("F001", 1.1, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "清仓成功！", result.Message)

	_, ok := l.Position("F001")
	assert.False(t, ok, "selling the full balance must not leave a dust position (had %.20f shares)", pos.Shares)
}

func TestSell_InsufficientSharesReportsMax(t *testing.T) {
	l := newTestLedger(100000)

	_, err := l.Buy("F001", "测试基金", 2.0, 100.456)
	require.NoError(t, err)

	result, err := l.Sell("F001", 2.0, 200)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "100.46")

	// Nothing changed
	pos, ok := l.Position("F001")
	require.True(t, ok)
	assert.InDelta(t, 100.456, pos.Shares, 1e-9)
}

func TestSell_NoPosition(t *testing.T) {
	l := newTestLedger(100000)

	result, err := l.Sell("F404", 2.0, 10)
	assert.ErrorIs(t, err, ErrPositionNotFound)
	assert.False(t, result.Success)
}

func TestSell_RejectsNonPositiveShares(t *testing.T) {
	l := newTestLedger(100000)

	_, err := l.Buy("F001", "测试基金", 2.0, 100)
	require.NoError(t, err)

	for _, shares := range []float64{0, -5} {
		result, err := l.Sell("F001", 2.0, shares)
		assert.ErrorIs(t, err, ErrInvalidShareCount)
		assert.False(t, result.Success)
	}
}

func TestTotalAssetsAlwaysConsistent(t *testing.T) {
	l := New(50000, fixedPriceProvider{price: 3.5}, zerolog.Nop())

	check := func() {
		t.Helper()
		snap := l.Snapshot()
		sum := snap.CashBalance
		for _, pos := range snap.Positions {
			sum += pos.MarketValue
		}
		assert.InDelta(t, snap.TotalAssets, sum, 0.03)
		assert.InDelta(t, snap.ProfitLoss, snap.TotalAssets-snap.InitialCapital, 0.03)
	}

	l.Buy("F001", "", 2.0, 100)
	check()
	l.Buy("F002", "", 5.0, 30)
	check()
	l.UpdatePrices(context.Background())
	check()
	l.Sell("F001", 3.5, 40)
	check()
	l.Sell("F002", 3.5, 30)
	check()
}

func TestUpdatePrices_OnlyTouchesValuation(t *testing.T) {
	l := New(100000, fixedPriceProvider{price: 2.64}, zerolog.Nop())

	_, err := l.Buy("F001", "测试基金", 2.4, 100)
	require.NoError(t, err)

	cashBefore := l.CashBalance()
	txsBefore := l.Transactions()

	l.UpdatePrices(context.Background())

	pos, ok := l.Position("F001")
	require.True(t, ok)
	assert.InDelta(t, 2.64, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 264.0, pos.MarketValue, 1e-9)
	assert.InDelta(t, 264.0-240.0, pos.ProfitLoss, 1e-9)
	assert.InDelta(t, (2.64-2.4)/2.4*100, pos.ProfitLossPercent, 1e-9)

	assert.Equal(t, cashBefore, l.CashBalance())
	assert.Equal(t, txsBefore, l.Transactions())
}

func TestReset(t *testing.T) {
	l := newTestLedger(100000)

	l.Buy("F001", "测试基金", 2.0, 100)
	l.Sell("F001", 2.0, 50)

	l.Reset()
	snap := l.Snapshot()
	assert.Equal(t, 100000.0, snap.CashBalance)
	assert.Equal(t, 100000.0, snap.TotalAssets)
	assert.Equal(t, 0.0, snap.ProfitLoss)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, l.Transactions())

	// Idempotent
	l.Reset()
	assert.Equal(t, snap, l.Snapshot())
}

func TestTransactions_NewestFirstWithSellType(t *testing.T) {
	l := newTestLedger(100000)

	l.Buy("F001", "测试基金", 2.0, 100)
	l.Sell("F001", 2.0, 40)
	l.Sell("F001", 2.0, 60)

	txs := l.Transactions()
	require.Len(t, txs, 3)

	assert.Equal(t, TransactionSell, txs[0].Type)
	assert.Equal(t, SellFull, txs[0].SellType)
	assert.Equal(t, TransactionSell, txs[1].Type)
	assert.Equal(t, SellPartial, txs[1].SellType)
	assert.Equal(t, TransactionBuy, txs[2].Type)
	assert.Empty(t, txs[2].SellType)

	for _, tx := range txs {
		assert.NotEmpty(t, tx.ID)
		assert.False(t, tx.CreatedAt.IsZero())
		assert.InDelta(t, tx.Shares*tx.Price, tx.TotalAmount, 1e-9)
	}
	// ULIDs sort by creation time, newest first means descending IDs
	assert.GreaterOrEqual(t, txs[0].ID, txs[1].ID)
	assert.GreaterOrEqual(t, txs[1].ID, txs[2].ID)
}

func TestScenario_BuyBuySellAll(t *testing.T) {
	l := newTestLedger(100000)

	result, err := l.Buy("F001", "测试基金", 2.456, 100)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.InDelta(t, 99754.4, l.CashBalance(), 1e-9)

	pos, _ := l.Position("F001")
	assert.InDelta(t, 100, pos.Shares, 1e-9)
	assert.InDelta(t, 245.6, pos.TotalCost, 1e-9)
	assert.InDelta(t, 2.456, pos.AvgCost, 1e-9)

	result, err = l.Buy("F001", "测试基金", 2.456, 50)
	require.NoError(t, err)
	require.True(t, result.Success)

	pos, _ = l.Position("F001")
	assert.InDelta(t, 150, pos.Shares, 1e-9)
	assert.InDelta(t, 368.4, pos.TotalCost, 1e-9)
	assert.InDelta(t, 2.456, pos.AvgCost, 1e-9)

	cashBefore := l.CashBalance()
	result, err = l.Sell("F001", 2.456, 150)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "清仓成功！", result.Message)

	_, held := l.Position("F001")
	assert.False(t, held)
	assert.InDelta(t, cashBefore+368.4, l.CashBalance(), 1e-9)
	assert.InDelta(t, 100000, l.Snapshot().TotalAssets, 0.01)
}
