package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertFinancials(t *testing.T, got Financials, course, services, discount, grand, paid, due string) {
	t.Helper()
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"courseTotal", got.CourseTotal, course},
		{"servicesTotal", got.ServicesTotal, services},
		{"discountValue", got.DiscountValue, discount},
		{"grandTotal", got.GrandTotal, grand},
		{"paidAmount", got.PaidAmount, paid},
		{"dueAmount", got.DueAmount, due},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestComputeFinancials(t *testing.T) {
	tests := []struct {
		name                                        string
		record                                      Record
		course, services, discount, grand, paid, due string
	}{
		{
			name:   "empty record is all zero",
			record: Record{},
			course: "0", services: "0", discount: "0", grand: "0", paid: "0", due: "0",
		},
		{
			name: "thousands separator and discount",
			record: Record{
				Course:   []Course{{CourseFee: "1,200"}},
				Discount: "200",
			},
			course: "1200", services: "0", discount: "200", grand: "1000", paid: "0", due: "1000",
		},
		{
			name: "fully paid",
			record: Record{
				Course:     []Course{{CourseFee: "500"}},
				Transcript: []PaymentProof{{Amount: "500"}},
			},
			course: "500", services: "0", discount: "0", grand: "500", paid: "500", due: "0",
		},
		{
			name: "overpayment leaves a negative due",
			record: Record{
				Course:     []Course{{CourseFee: "500"}},
				Services:   []Service{{Amount: "100"}},
				Transcript: []PaymentProof{{Amount: "400"}, {Amount: "350"}},
			},
			course: "500", services: "100", discount: "0", grand: "600", paid: "750", due: "-150",
		},
		{
			name: "discount larger than fees leaves a negative grand total",
			record: Record{
				Course:   []Course{{CourseFee: "100"}},
				Discount: "300",
			},
			course: "100", services: "0", discount: "300", grand: "-200", paid: "0", due: "-200",
		},
		{
			name: "malformed values count as zero",
			record: Record{
				Course:     []Course{{CourseFee: "abc"}, {CourseFee: "2,000.50"}},
				Services:   []Service{{Amount: ""}, {Amount: "n/a"}, {Amount: "49.50"}},
				Discount:   "none",
				Transcript: []PaymentProof{{Amount: "??"}, {Amount: "1000"}},
			},
			course: "2000.5", services: "49.5", discount: "0", grand: "2050", paid: "1000", due: "1050",
		},
		{
			name: "several courses and services",
			record: Record{
				Course:     []Course{{CourseFee: "10,000"}, {CourseFee: "2,500"}},
				Services:   []Service{{Amount: "300"}, {Amount: "150.25"}},
				Discount:   "450.25",
				Transcript: []PaymentProof{{Amount: "5,000"}},
			},
			course: "12500", services: "450.25", discount: "450.25", grand: "12500", paid: "5000", due: "7500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFinancials(tt.record)
			assertFinancials(t, got, tt.course, tt.services, tt.discount, tt.grand, tt.paid, tt.due)
		})
	}
}

func TestComputeFinancialsIsIdempotent(t *testing.T) {
	r := Record{
		Course:     []Course{{CourseFee: "1,000"}},
		Services:   []Service{{Amount: "250"}},
		Discount:   "50",
		Transcript: []PaymentProof{{Amount: "600"}},
	}
	first := ComputeFinancials(r)
	second := ComputeFinancials(r)
	assertFinancials(t, second,
		first.CourseTotal.String(), first.ServicesTotal.String(), first.DiscountValue.String(),
		first.GrandTotal.String(), first.PaidAmount.String(), first.DueAmount.String())
	if r.Course[0].CourseFee != "1,000" {
		t.Fatalf("input mutated: %+v", r.Course)
	}
}

func TestFinancialsAdd(t *testing.T) {
	a := ComputeFinancials(Record{Course: []Course{{CourseFee: "100"}}, Transcript: []PaymentProof{{Amount: "40"}}})
	b := ComputeFinancials(Record{Services: []Service{{Amount: "20"}}, Discount: "5"})
	sum := a.Add(b)
	assertFinancials(t, sum, "100", "20", "5", "115", "40", "75")
	if sum.IsOverpaid() {
		t.Fatalf("sum should not be overpaid")
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		sales, target string
		want          float64
	}{
		{"500", "1000", 50},
		{"1500", "1000", 150},
		{"0", "1000", 0},
		{"500", "0", 0},
		{"500", "-10", 0},
	}
	for _, tc := range cases {
		if got := ProgressPercent(dec(tc.sales), dec(tc.target)); got != tc.want {
			t.Fatalf("ProgressPercent(%s, %s) = %v, want %v", tc.sales, tc.target, got, tc.want)
		}
	}
}
