package workflow

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/scoring"
)

// ScoringInvoices maps storage rows onto the scoring engine's input,
// preserving the original order.
func ScoringInvoices(invoices []*models.Invoice) []scoring.Invoice {
	out := make([]scoring.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, scoring.Invoice{
			Status: string(inv.CurrentStatus),
			Amount: inv.Amount,
		})
	}
	return out
}

// RecomputeCreditScores rescores every customer from their full invoice
// history, persisting (and counting) only changed scores.
func RecomputeCreditScores(ctx context.Context, now time.Time) (int, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	var customers []*models.Customer
	if err := db.WithContext(ctx).Order("id").Find(&customers).Error; err != nil {
		return 0, err
	}

	day := models.SummaryDay(now)
	updated := 0
	perCompany := map[int]int{}
	for _, customer := range customers {
		invoices, err := models.GetCustomerInvoices(ctx, customer.CompanyId, customer.ID)
		if err != nil {
			config.LogError(logger, "workflow", "RecomputeCreditScores", "invoices", customer.ID, err)
			continue
		}

		score := scoring.Score(ScoringInvoices(invoices))
		if score == customer.CreditScore {
			continue
		}
		if err := models.UpdateCustomerScore(ctx, customer, score); err != nil {
			config.LogError(logger, "workflow", "RecomputeCreditScores", "persist", customer.ID, err)
			continue
		}
		updated++
		perCompany[customer.CompanyId]++
	}

	for companyId, n := range perCompany {
		if err := models.IncrementDailySummary(ctx, companyId, day, "scores_updated", n); err != nil {
			config.LogError(logger, "workflow", "RecomputeCreditScores", "summary", companyId, err)
		}
	}
	return updated, nil
}

func (s *Scheduler) runRecomputeScores(ctx context.Context) error {
	now := time.Now()
	if !onceToday(ctx, "recompute-scores", models.SummaryDay(now)) {
		return nil
	}
	count, err := RecomputeCreditScores(ctx, now)
	if err != nil {
		return err
	}
	s.Logger.WithField("count", count).Info("credit score recomputation done")
	return nil
}
