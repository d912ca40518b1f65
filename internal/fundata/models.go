package fundata

import (
	"strings"
	"time"
)

// Quote is the latest net asset value for a single fund.
type Quote struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	DayGrowth float64   `json:"day_growth"`
	ValueDate string    `json:"value_date"`
	Timestamp time.Time `json:"timestamp"`
}

// FundInfo is one entry of the open-fund list.
type FundInfo struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Company   string  `json:"company"`
	Value     float64 `json:"value"`
	DayGrowth float64 `json:"day_growth"`
}

// NavPoint is one day of NAV history.
type NavPoint struct {
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	Accumulated float64 `json:"accumulated"`
}

// Fund type classification by code prefix. The upstream list does not
// always carry a type, so we fall back to the conventional code ranges.
const (
	TypeStock = "stock"
	TypeBond  = "bond"
	TypeMix   = "mix"
	TypeMoney = "money"
	TypeIndex = "index"
)

// TypeForCode infers a fund type from its code prefix.
func TypeForCode(code string) string {
	switch {
	case strings.HasPrefix(code, "000") || strings.HasPrefix(code, "001"):
		return TypeMix
	case strings.HasPrefix(code, "1617") || strings.HasPrefix(code, "1634"):
		return TypeIndex
	case strings.HasPrefix(code, "519") || strings.HasPrefix(code, "161"):
		return TypeStock
	case strings.HasPrefix(code, "1619") || strings.HasPrefix(code, "005"):
		return TypeBond
	case strings.HasPrefix(code, "002") || strings.HasPrefix(code, "003"):
		return TypeMoney
	default:
		return TypeMix
	}
}
