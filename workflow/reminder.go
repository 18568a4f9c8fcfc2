package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

// Unpaid invoices due within this many days count as nearing due.
const reminderDueSoonDays = 3

// ReminderWindow reports whether now has reached the company's configured
// reminder time of day.
func ReminderWindow(settings models.ReminderSettings, now time.Time) bool {
	if !settings.Enabled {
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), settings.Hour, settings.Minute, 0, 0, now.Location())
	return !now.Before(scheduled)
}

// NeedsReminder reports whether an invoice should be included in today's
// reminder batch: every past-due invoice, plus unpaid invoices whose due date
// falls within the due-soon window.
func NeedsReminder(invoice *models.Invoice, now time.Time) bool {
	switch invoice.CurrentStatus {
	case models.InvoiceStatusPastDue:
		return true
	case models.InvoiceStatusUnpaid:
		cutoff := utils.TruncateToDay(now).AddDate(0, 0, reminderDueSoonDays+1)
		return utils.TruncateToDay(invoice.DueDate).Before(cutoff)
	default:
		return false
	}
}

func reminderMessage(invoice *models.Invoice) string {
	if invoice.CurrentStatus == models.InvoiceStatusPastDue {
		return fmt.Sprintf("Invoice %s for %s is past due (due %s)",
			invoice.InvoiceNumber, invoice.Amount.StringFixed(2), invoice.DueDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("Invoice %s for %s is due %s",
		invoice.InvoiceNumber, invoice.Amount.StringFixed(2), invoice.DueDate.Format("2006-01-02"))
}

// SendReminders writes reminder notifications for every nearing-due or
// past-due invoice of each company whose reminder preference is enabled and
// whose scheduled time has passed. Disabled companies are skipped outright,
// matching the cancel-on-disable behavior of the preference.
func SendReminders(ctx context.Context, now time.Time) (int, error) {
	logger := config.GetLogger()

	companies, err := models.GetAllCompanies(ctx)
	if err != nil {
		return 0, err
	}

	day := models.SummaryDay(now)
	sent := 0
	for _, company := range companies {
		settings, err := models.GetReminderSettings(ctx, company.ID)
		if err != nil {
			config.LogError(logger, "workflow", "SendReminders", "settings", company.ID, err)
			continue
		}
		if !ReminderWindow(settings, now) {
			continue
		}
		if !onceToday(ctx, fmt.Sprintf("reminders:%d", company.ID), day) {
			continue
		}

		db := config.GetDB()
		var candidates []*models.Invoice
		err = db.WithContext(ctx).
			Where("company_id = ? AND current_status IN ?", company.ID,
				[]models.InvoiceStatus{models.InvoiceStatusUnpaid, models.InvoiceStatusPastDue}).
			Order("due_date").
			Find(&candidates).Error
		if err != nil {
			config.LogError(logger, "workflow", "SendReminders", "invoices", company.ID, err)
			continue
		}

		for _, invoice := range candidates {
			if !NeedsReminder(invoice, now) {
				continue
			}
			notification := models.Notification{
				CompanyId:  company.ID,
				CustomerId: invoice.CustomerId,
				InvoiceId:  invoice.ID,
				Kind:       models.NotificationKindReminder,
				Message:    reminderMessage(invoice),
			}
			if err := models.CreateNotification(ctx, &notification); err != nil {
				config.LogError(logger, "workflow", "SendReminders", "notify", invoice.ID, err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (s *Scheduler) runReminders(ctx context.Context) error {
	count, err := SendReminders(ctx, time.Now())
	if err != nil {
		return err
	}
	if count > 0 {
		s.Logger.WithField("count", count).Info("reminders sent")
	}
	return nil
}
