package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"gorm.io/gorm"
)

// FinalizeDailySummaries closes the previous day's summary row per company
// and emits one summary notification for it. Companies with no activity that
// day have no row and are skipped.
func FinalizeDailySummaries(ctx context.Context, now time.Time) (int, error) {
	logger := config.GetLogger()

	companies, err := models.GetAllCompanies(ctx)
	if err != nil {
		return 0, err
	}

	day := models.SummaryDay(now.AddDate(0, 0, -1))
	finalized := 0
	for _, company := range companies {
		summary, err := models.GetDailySummary(ctx, company.ID, day)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			config.LogError(logger, "workflow", "FinalizeDailySummaries", "fetch", company.ID, err)
			continue
		}
		if summary.Finalized {
			continue
		}
		if _, err := models.FinalizeDailySummary(ctx, company.ID, day); err != nil {
			config.LogError(logger, "workflow", "FinalizeDailySummaries", "finalize", company.ID, err)
			continue
		}

		notification := models.Notification{
			CompanyId: company.ID,
			Kind:      models.NotificationKindSummary,
			Message: fmt.Sprintf("%s: %d marked overdue, %d paid, %d late, %d scores updated, %d receipts processed",
				day, summary.MarkedOverdue, summary.InvoicesPaid, summary.InvoicesLate,
				summary.ScoresUpdated, summary.ReceiptsProcessed),
		}
		if err := models.CreateNotification(ctx, &notification); err != nil {
			config.LogError(logger, "workflow", "FinalizeDailySummaries", "notify", company.ID, err)
			continue
		}
		finalized++
	}
	return finalized, nil
}

func (s *Scheduler) runDailySummary(ctx context.Context) error {
	now := time.Now()
	if !onceToday(ctx, "daily-summary", models.SummaryDay(now)) {
		return nil
	}
	count, err := FinalizeDailySummaries(ctx, now)
	if err != nil {
		return err
	}
	if count > 0 {
		s.Logger.WithField("count", count).Info("daily summaries finalized")
	}
	return nil
}
