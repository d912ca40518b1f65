package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangziyue0319-jpg/simulationtrading/internal/fundata"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/catalog"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/ledger"
)

type listProvider struct {
	funds []fundata.FundInfo
	err   error
}

func (p *listProvider) List(_ context.Context) ([]fundata.FundInfo, error) { return p.funds, p.err }
func (p *listProvider) Lookup(_ context.Context, _ string) (fundata.Quote, error) {
	return fundata.Quote{}, fundata.ErrNotFound
}
func (p *listProvider) History(_ context.Context, _ string, _ int) ([]fundata.NavPoint, error) {
	return nil, fundata.ErrUnavailable
}
func (p *listProvider) Invalidate(_ string) {}

func TestCatalogRefreshJob(t *testing.T) {
	p := &listProvider{funds: []fundata.FundInfo{
		{Code: "519066", Name: "汇添富蓝筹稳健混合", Value: 1.9},
	}}
	cat := catalog.NewService(p, zerolog.Nop())
	job := NewCatalogRefreshJob(cat, 5*time.Second, zerolog.Nop())

	assert.Equal(t, "catalog_refresh", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, cat.Merged(), 1)

	p.err = fundata.ErrUnavailable
	assert.Error(t, job.Run())
	// Stale data survives the failed refresh
	assert.Len(t, cat.Merged(), 1)
}

func TestPriceTickJob(t *testing.T) {
	book := ledger.New(100000, ledger.NewRandomWalkProvider(), zerolog.Nop())
	_, err := book.Buy("000001", "华夏成长混合", 1.234, 100)
	require.NoError(t, err)

	job := NewPriceTickJob(book, zerolog.Nop())
	assert.Equal(t, "price_tick", job.Name())

	cashBefore := book.CashBalance()
	require.NoError(t, job.Run())

	pos, ok := book.Position("000001")
	require.True(t, ok)
	assert.InDelta(t, 1.234, pos.CurrentPrice, 1.234*0.03+1e-9)
	assert.Equal(t, cashBefore, book.CashBalance())
}

func TestScheduler_AddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewPriceTickJob(ledger.New(1000, ledger.NewRandomWalkProvider(), zerolog.Nop()), zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", job))
	assert.NoError(t, s.AddJob("@every 1h", job))
}
