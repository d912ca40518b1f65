// Package catalog maintains the known-fund registry: a popular set refreshed
// from the fund-data service plus funds the user added by code, merged into a
// single view deduplicated by fund code.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wangziyue0319-jpg/simulationtrading/internal/fundata"
)

// ErrFundNotFound means the code could not be resolved by the quote lookup.
var ErrFundNotFound = errors.New("fund not found")

// Provider is the slice of the fund-data client the catalog needs.
type Provider interface {
	List(ctx context.Context) ([]fundata.FundInfo, error)
	Lookup(ctx context.Context, code string) (fundata.Quote, error)
	History(ctx context.Context, code string, limit int) ([]fundata.NavPoint, error)
	Invalidate(code string)
}

// defaultFunds seeds the popular set until the first successful refresh,
// so the trainer is usable when the data service is down.
var defaultFunds = []Fund{
	{Code: "000001", Name: "华夏成长混合", Type: fundata.TypeMix, Company: "华夏基金", Value: 1.234, DayGrowth: 0.5},
	{Code: "110022", Name: "易方达消费行业股票", Type: fundata.TypeStock, Company: "易方达基金", Value: 2.456, DayGrowth: 1.2},
	{Code: "161725", Name: "招商中证白酒指数", Type: fundata.TypeIndex, Company: "招商基金", Value: 1.567, DayGrowth: -0.3},
}

// Service owns the popular and user-added fund sets.
type Service struct {
	provider Provider
	log      zerolog.Logger

	mu        sync.Mutex
	popular   []Fund
	userAdded []Fund
	merged    []Fund
}

// NewService creates a new catalog service seeded with the default funds.
func NewService(provider Provider, log zerolog.Logger) *Service {
	s := &Service{
		provider: provider,
		log:      log.With().Str("service", "catalog").Logger(),
		popular:  append([]Fund(nil), defaultFunds...),
	}
	s.remerge()
	return s
}

// LoadPopular refreshes the popular set from the list provider. On failure
// the previous set is kept untouched and the error is returned to the caller.
func (s *Service) LoadPopular(ctx context.Context) error {
	infos, err := s.provider.List(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Popular fund list refresh failed, keeping stale data")
		return fmt.Errorf("failed to load popular funds: %w", err)
	}

	funds := make([]Fund, 0, len(infos))
	for _, info := range infos {
		funds = append(funds, fromFundInfo(info))
	}

	s.mu.Lock()
	s.popular = funds
	s.remerge()
	s.mu.Unlock()

	s.log.Info().Int("count", len(funds)).Msg("Popular fund list refreshed")
	return nil
}

// AddByCode resolves code through the quote lookup and appends it to the
// user-added set. Adding a code that is already present is a no-op.
func (s *Service) AddByCode(ctx context.Context, code string) (Fund, error) {
	s.mu.Lock()
	for _, f := range s.userAdded {
		if f.Code == code {
			s.mu.Unlock()
			return f, nil
		}
	}
	s.mu.Unlock()

	quote, err := s.provider.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, fundata.ErrNotFound) {
			return Fund{}, fmt.Errorf("%w: %s", ErrFundNotFound, code)
		}
		return Fund{}, fmt.Errorf("failed to look up fund %s: %w", code, err)
	}

	fund := fromQuote(quote)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under lock, the lookup released it
	for _, f := range s.userAdded {
		if f.Code == code {
			return f, nil
		}
	}
	s.userAdded = append(s.userAdded, fund)
	s.remerge()

	s.log.Info().Str("code", code).Str("name", fund.Name).Msg("Fund added to catalog")
	return fund, nil
}

// RefreshPrice re-fetches the quote for a single code and applies the new
// value to every matching entry. A failed lookup leaves the catalog untouched.
func (s *Service) RefreshPrice(ctx context.Context, code string) {
	s.provider.Invalidate(code)

	quote, err := s.provider.Lookup(ctx, code)
	if err != nil {
		s.log.Debug().Err(err).Str("code", code).Msg("Price refresh skipped")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.popular {
		if s.popular[i].Code == code {
			s.popular[i].Value = quote.Value
			s.popular[i].DayGrowth = quote.DayGrowth
		}
	}
	for i := range s.userAdded {
		if s.userAdded[i].Code == code {
			s.userAdded[i].Value = quote.Value
			s.userAdded[i].DayGrowth = quote.DayGrowth
		}
	}
	s.remerge()
}

// Merged returns the deduplicated catalog view: popular funds in insertion
// order, then user-added funds not already present. A user-added fund wins
// over a popular fund sharing its code.
func (s *Service) Merged() []Fund {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Fund, len(s.merged))
	copy(out, s.merged)
	return out
}

// Resolve returns the catalog entry for code, if any.
func (s *Service) Resolve(code string) (Fund, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.merged {
		if f.Code == code {
			return f, true
		}
	}
	return Fund{}, false
}

// Search matches query against fund codes and names, case-insensitively.
// Queries shorter than 2 characters return nothing.
func (s *Service) Search(query string, limit int) []Fund {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Fund
	for _, f := range s.merged {
		if len(results) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(f.Code), query) ||
			strings.Contains(strings.ToLower(f.Name), query) {
			results = append(results, f)
		}
	}
	return results
}

// Detail fetches the latest quote and recent NAV history for a code.
func (s *Service) Detail(ctx context.Context, code string, historyDays int) (FundDetail, error) {
	quote, err := s.provider.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, fundata.ErrNotFound) {
			return FundDetail{}, fmt.Errorf("%w: %s", ErrFundNotFound, code)
		}
		return FundDetail{}, fmt.Errorf("failed to look up fund %s: %w", code, err)
	}

	detail := FundDetail{
		Fund:      fromQuote(quote),
		ValueDate: quote.ValueDate,
	}
	if known, ok := s.Resolve(code); ok {
		detail.Name = known.Name
		detail.Type = known.Type
		detail.Company = known.Company
	}

	if historyDays > 0 {
		history, err := s.provider.History(ctx, code, historyDays)
		if err != nil {
			// History is decoration, the quote alone is still a useful answer
			s.log.Debug().Err(err).Str("code", code).Msg("NAV history unavailable")
		} else {
			detail.NavHistory = history
		}
	}

	return detail, nil
}

// remerge rebuilds the merged view. Callers must hold s.mu.
func (s *Service) remerge() {
	overrides := make(map[string]Fund, len(s.userAdded))
	for _, f := range s.userAdded {
		overrides[f.Code] = f
	}

	merged := make([]Fund, 0, len(s.popular)+len(s.userAdded))
	seen := make(map[string]bool, len(s.popular))
	for _, f := range s.popular {
		if o, ok := overrides[f.Code]; ok {
			f = o
		}
		merged = append(merged, f)
		seen[f.Code] = true
	}
	for _, f := range s.userAdded {
		if !seen[f.Code] {
			merged = append(merged, f)
			seen[f.Code] = true
		}
	}
	s.merged = merged
}
