package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
)

func paid(amount int64) Invoice {
	return Invoice{Status: StatusPaid, Amount: decimal.NewFromInt(amount)}
}

func pastDue(amount int64) Invoice {
	return Invoice{Status: StatusPastDue, Amount: decimal.NewFromInt(amount)}
}

func unpaid(amount int64) Invoice {
	return Invoice{Status: StatusUnpaid, Amount: decimal.NewFromInt(amount)}
}

func TestScore_EmptyHistoryIsBaseline(t *testing.T) {
	if got := Score(nil); got != BaseScore {
		t.Fatalf("Score(nil) expected %d, got %d", BaseScore, got)
	}
	if got := Score([]Invoice{}); got != BaseScore {
		t.Fatalf("Score(empty) expected %d, got %d", BaseScore, got)
	}
}

func TestScore_SinglePaidInvoiceExceedsHundred(t *testing.T) {
	// 60 + first paid bonus 6, plus full debt base 40: the scale is open-ended
	// above 100 on purpose.
	got := Score([]Invoice{paid(100)})
	if got != 106 {
		t.Fatalf("expected 106, got %d", got)
	}
}

func TestScore_AllPastDueFloorsDebtComponent(t *testing.T) {
	// Payment history 60-12-10=38; outstanding ratio is 1 so the debt
	// component floors at round(40*0.1)=4.
	got := Score([]Invoice{pastDue(50), pastDue(50)})
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestScore_MixedHistory(t *testing.T) {
	// Payment: 60 + 6 - 12 = 54. Debt: outstanding 300 of 400, (1-0.75)*40 = 10.
	got := Score([]Invoice{paid(100), pastDue(100), unpaid(200)})
	if got != 64 {
		t.Fatalf("expected 64, got %d", got)
	}
}

func TestPaymentHistoryComponent_PenaltyTable(t *testing.T) {
	// The penalty sequence 12,10,8,6,42,30 (then repeat 30) is shipped product
	// behavior, including the jump at the fifth overdue invoice.
	deltas := []int{12, 10, 8, 6, 42, 30, 30}
	invoices := []Invoice{}
	expected := BaseScore
	for i, d := range deltas {
		invoices = append(invoices, pastDue(10))
		expected -= d
		if got := PaymentHistoryComponent(invoices); got != expected {
			t.Fatalf("after %d overdue invoices expected %d, got %d", i+1, expected, got)
		}
	}
}

func TestPaymentHistoryComponent_BonusDiminishesAndRepeats(t *testing.T) {
	deltas := []int{6, 5, 4, 2, 1, 1}
	invoices := []Invoice{}
	expected := BaseScore
	for i, d := range deltas {
		invoices = append(invoices, paid(10))
		expected += d
		if got := PaymentHistoryComponent(invoices); got != expected {
			t.Fatalf("after %d paid invoices expected %d, got %d", i+1, expected, got)
		}
	}
}

func TestOutstandingDebtComponent(t *testing.T) {
	cases := []struct {
		name     string
		invoices []Invoice
		expected int
	}{
		{"all paid", []Invoice{paid(100)}, 40},
		{"zero total", []Invoice{paid(0), paid(0)}, 40},
		{"half outstanding", []Invoice{paid(100), unpaid(100)}, 20},
		{"fully outstanding", []Invoice{unpaid(100)}, 4},
		{"late payment counts as outstanding", []Invoice{{Status: StatusLatePayment, Amount: decimal.NewFromInt(100)}}, 4},
	}
	for _, tc := range cases {
		if got := OutstandingDebtComponent(tc.invoices); got != tc.expected {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.expected, got)
		}
	}
}

func TestScore_CanGoNegative(t *testing.T) {
	invoices := []Invoice{}
	for i := 0; i < 7; i++ {
		invoices = append(invoices, pastDue(10))
	}
	// 60 - (12+10+8+6+42+30+30) = -78, plus debt floor 4.
	if got := Score(invoices); got != -74 {
		t.Fatalf("expected -74, got %d", got)
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		score    int
		expected Category
	}{
		{106, CategoryExcellent},
		{85, CategoryExcellent},
		{84, CategoryVeryGood},
		{70, CategoryVeryGood},
		{69, CategoryGood},
		{55, CategoryGood},
		{54, CategoryFair},
		{40, CategoryFair},
		{39, CategoryPoor},
		{1, CategoryPoor},
		{0, CategoryNoScore},
		{-84, CategoryNoScore},
	}
	for _, tc := range cases {
		if got := Categorize(tc.score); got != tc.expected {
			t.Fatalf("Categorize(%d) expected %s, got %s", tc.score, tc.expected, got)
		}
	}
}

func TestColor_EveryBandHasAColor(t *testing.T) {
	bands := []Category{
		CategoryExcellent, CategoryVeryGood, CategoryGood,
		CategoryFair, CategoryPoor, CategoryNoScore,
	}
	seen := map[string]Category{}
	for _, band := range bands {
		c := Color(band)
		if c == "" {
			t.Fatalf("Color(%s) is empty", band)
		}
		if prev, dup := seen[c]; dup {
			t.Fatalf("bands %s and %s share color %s", prev, band, c)
		}
		seen[c] = band
	}
}
