// Package scoring derives a customer's credit score from their invoice
// history. Pure functions only: no persistence, no side effects, total over
// their input domain.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Invoice is the slice of invoice state the engine needs. Callers map their
// storage rows onto it; order must be the customer's original invoice order.
type Invoice struct {
	Status string
	Amount decimal.Decimal
}

const (
	StatusUnpaid      = "Unpaid"
	StatusPastDue     = "PastDue"
	StatusPaid        = "Paid"
	StatusLatePayment = "LatePayment"
)

const (
	// BaseScore is both the empty-history score and the payment-history base.
	BaseScore = 60
	debtBase  = 40
)

// paidBonusRates are fractions of BaseScore awarded per paid invoice, in
// order; histories longer than the table repeat the last entry.
var paidBonusRates = []float64{0.10, 0.08, 0.06, 0.04, 0.02}

// overduePenaltyRates are fractions of BaseScore deducted per past-due
// invoice. The sequence is deliberately non-monotonic (20,17,14,10,70,50);
// it is tuned product behavior and pinned by tests, do not "fix" it.
var overduePenaltyRates = []float64{0.20, 0.17, 0.14, 0.10, 0.70, 0.50}

// Score computes the customer's credit score. An empty history returns the
// baseline. The result is intentionally not clamped to any range.
func Score(invoices []Invoice) int {
	if len(invoices) == 0 {
		return BaseScore
	}
	return PaymentHistoryComponent(invoices) + OutstandingDebtComponent(invoices)
}

// PaymentHistoryComponent starts from BaseScore, adds a diminishing bonus per
// paid invoice and subtracts a penalty per past-due invoice. Each delta is
// rounded to the nearest integer before accumulation.
func PaymentHistoryComponent(invoices []Invoice) int {
	score := BaseScore

	paidIdx := 0
	overdueIdx := 0
	for _, inv := range invoices {
		switch inv.Status {
		case StatusPaid:
			score += roundRate(paidBonusRates, paidIdx)
			paidIdx++
		case StatusPastDue:
			score -= roundRate(overduePenaltyRates, overdueIdx)
			overdueIdx++
		}
	}
	return score
}

// OutstandingDebtComponent scales the debt base by the share of invoiced
// amount that is not yet paid. A fully-unpaid history floors at
// round(debtBase * 0.1).
func OutstandingDebtComponent(invoices []Invoice) int {
	total := decimal.Zero
	outstanding := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Amount)
		if inv.Status != StatusPaid {
			outstanding = outstanding.Add(inv.Amount)
		}
	}

	if total.IsZero() {
		return debtBase
	}

	ratio, _ := outstanding.Div(total).Float64()
	if ratio < 1 {
		return int(math.Round((1 - ratio) * debtBase))
	}
	return int(math.Round(debtBase * 0.1))
}

func roundRate(rates []float64, idx int) int {
	if idx >= len(rates) {
		idx = len(rates) - 1
	}
	return int(math.Round(rates[idx] * BaseScore))
}
