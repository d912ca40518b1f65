package catalog

import "github.com/wangziyue0319-jpg/simulationtrading/internal/fundata"

// Fund is one entry of the tradable-fund catalog.
type Fund struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Company   string  `json:"company,omitempty"`
	Value     float64 `json:"value"`
	DayGrowth float64 `json:"day_growth"`
}

// FundDetail is a Fund plus its recent NAV history, newest first.
type FundDetail struct {
	Fund
	ValueDate  string             `json:"value_date,omitempty"`
	NavHistory []fundata.NavPoint `json:"nav_history"`
}

func fromFundInfo(info fundata.FundInfo) Fund {
	f := Fund{
		Code:      info.Code,
		Name:      info.Name,
		Type:      info.Type,
		Company:   info.Company,
		Value:     info.Value,
		DayGrowth: info.DayGrowth,
	}
	if f.Type == "" {
		f.Type = fundata.TypeForCode(f.Code)
	}
	return f
}

func fromQuote(q fundata.Quote) Fund {
	return Fund{
		Code:      q.Code,
		Name:      q.Name,
		Type:      fundata.TypeForCode(q.Code),
		Value:     q.Value,
		DayGrowth: q.DayGrowth,
	}
}
