package workflow

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

// IsOverdue reports whether an unpaid invoice has slipped past its due date.
// Both sides are truncated to the day: an invoice due today is not overdue.
func IsOverdue(dueDate time.Time, now time.Time) bool {
	return utils.TruncateToDay(dueDate).Before(utils.TruncateToDay(now))
}

// MarkOverdueInvoices transitions every Unpaid invoice past its due date to
// PastDue, recording the per-company count in the daily summary. One bad
// invoice does not stop the rest of the scan.
func MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	var candidates []*models.Invoice
	err := db.WithContext(ctx).
		Where("current_status = ?", models.InvoiceStatusUnpaid).
		Order("id").
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	day := models.SummaryDay(now)
	total := 0
	perCompany := map[int]int{}
	for _, invoice := range candidates {
		if !IsOverdue(invoice.DueDate, now) {
			continue
		}
		if err := models.TransitionInvoiceStatus(ctx, invoice, models.InvoiceStatusPastDue); err != nil {
			config.LogError(logger, "workflow", "MarkOverdueInvoices", "transition", invoice.ID, err)
			continue
		}
		total++
		perCompany[invoice.CompanyId]++
	}

	for companyId, n := range perCompany {
		if err := models.IncrementDailySummary(ctx, companyId, day, "marked_overdue", n); err != nil {
			config.LogError(logger, "workflow", "MarkOverdueInvoices", "summary", companyId, err)
		}
	}
	return total, nil
}

func (s *Scheduler) runMarkOverdue(ctx context.Context) error {
	now := time.Now()
	if !onceToday(ctx, "mark-overdue", models.SummaryDay(now)) {
		return nil
	}
	count, err := MarkOverdueInvoices(ctx, now)
	if err != nil {
		return err
	}
	s.Logger.WithField("count", count).Info("overdue marking done")
	return nil
}
