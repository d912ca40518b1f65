package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/catalog"
	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/ledger"
)

// CatalogRefreshJob reloads the popular fund list. A failed refresh keeps
// the stale catalog, it is never an error worth stopping the scheduler for.
type CatalogRefreshJob struct {
	catalog *catalog.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewCatalogRefreshJob creates the popular-list refresh job.
func NewCatalogRefreshJob(cat *catalog.Service, timeout time.Duration, log zerolog.Logger) *CatalogRefreshJob {
	return &CatalogRefreshJob{
		catalog: cat,
		timeout: timeout,
		log:     log.With().Str("job", "catalog_refresh").Logger(),
	}
}

// Name returns the job name
func (j *CatalogRefreshJob) Name() string {
	return "catalog_refresh"
}

// Run refreshes the popular fund list.
func (j *CatalogRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.catalog.LoadPopular(ctx)
}

// PriceTickJob advances every held position by one price tick.
type PriceTickJob struct {
	ledger *ledger.Ledger
	log    zerolog.Logger
}

// NewPriceTickJob creates the price tick job.
func NewPriceTickJob(l *ledger.Ledger, log zerolog.Logger) *PriceTickJob {
	return &PriceTickJob{
		ledger: l,
		log:    log.With().Str("job", "price_tick").Logger(),
	}
}

// Name returns the job name
func (j *PriceTickJob) Name() string {
	return "price_tick"
}

// Run applies one tick to all held positions.
func (j *PriceTickJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.ledger.UpdatePrices(ctx)
	return nil
}
