package core

import "github.com/shopspring/decimal"

// Financials is the money picture of one lead or quotation.
//
// GrandTotal and DueAmount are not clamped: a discount larger than the fees
// gives a negative grand total, and an overpaid transcript gives a negative
// due amount (money the agency owes back).
type Financials struct {
	CourseTotal   decimal.Decimal `json:"courseTotal"`
	ServicesTotal decimal.Decimal `json:"servicesTotal"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
}

// ComputeFinancials sums course fees, services, discount and transcript
// payments of r. It has no side effects and never fails: missing slices are
// empty and unparsable amounts count as zero.
func ComputeFinancials(r Record) Financials {
	var f Financials
	for _, c := range r.Course {
		f.CourseTotal = f.CourseTotal.Add(c.CourseFee.Decimal())
	}
	for _, s := range r.Services {
		f.ServicesTotal = f.ServicesTotal.Add(s.Amount.Decimal())
	}
	f.DiscountValue = r.Discount.Decimal()
	f.GrandTotal = f.CourseTotal.Add(f.ServicesTotal).Sub(f.DiscountValue)
	for _, t := range r.Transcript {
		f.PaidAmount = f.PaidAmount.Add(t.Amount.Decimal())
	}
	f.DueAmount = f.GrandTotal.Sub(f.PaidAmount)
	return f
}

// Add returns the field-wise sum of f and o.
func (f Financials) Add(o Financials) Financials {
	return Financials{
		CourseTotal:   f.CourseTotal.Add(o.CourseTotal),
		ServicesTotal: f.ServicesTotal.Add(o.ServicesTotal),
		DiscountValue: f.DiscountValue.Add(o.DiscountValue),
		GrandTotal:    f.GrandTotal.Add(o.GrandTotal),
		PaidAmount:    f.PaidAmount.Add(o.PaidAmount),
		DueAmount:     f.DueAmount.Add(o.DueAmount),
	}
}

// IsOverpaid reports a negative due amount.
func (f Financials) IsOverpaid() bool {
	return f.DueAmount.IsNegative()
}
