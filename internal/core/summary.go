package core

import "github.com/shopspring/decimal"

// GroupSummary aggregates the records sharing one group key (a country,
// an agent email, ...).
type GroupSummary struct {
	Key      string          `json:"key"`
	Records  int             `json:"records"`
	Totals   Financials      `json:"totals"`
	Target   decimal.Decimal `json:"target"`
	Sales    decimal.Decimal `json:"sales"`
	Progress float64         `json:"progress"` // percent of Target reached, 0 when Target <= 0
}

// GroupTarget is the sales target configured for a group key.
type GroupTarget struct {
	Key    string
	Target decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ProgressPercent returns sales/target*100, or 0 when target is not positive.
func ProgressPercent(sales, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	return sales.Div(target).Mul(hundred).InexactFloat64()
}
