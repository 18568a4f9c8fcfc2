package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

// SettlementStatus decides the terminal state a receipt drives its invoice
// to: Paid when the due date is still ahead at processing time, LatePayment
// otherwise.
func SettlementStatus(dueDate time.Time, processedAt time.Time) models.InvoiceStatus {
	if dueDate.After(processedAt) {
		return models.InvoiceStatusPaid
	}
	return models.InvoiceStatusLatePayment
}

// SettleReceipts applies unsettled receipts to their invoices: the invoice
// moves to Paid or LatePayment and the owning customer's outstanding credit
// balance is decremented by the invoice amount. A receipt whose invoice no
// longer exists is skipped (settled without effect). Per-receipt failures
// are logged and retried on the next run.
func SettleReceipts(ctx context.Context, processedAt time.Time) (paid int, late int, err error) {
	logger := config.GetLogger()

	receipts, err := models.GetUnsettledReceipts(ctx)
	if err != nil {
		return 0, 0, err
	}

	day := models.SummaryDay(processedAt)
	for _, receipt := range receipts {
		invoice, ferr := utils.FetchModel[models.Invoice](ctx, receipt.CompanyId, receipt.InvoiceId)
		if ferr != nil {
			if errors.Is(ferr, utils.ErrorRecordNotFound) {
				// Invoice is gone (deleted or synced away); nothing to settle.
				if serr := models.MarkReceiptSettled(ctx, receipt); serr != nil {
					config.LogError(logger, "workflow", "SettleReceipts", "settle orphan", receipt.ID, serr)
				}
				continue
			}
			config.LogError(logger, "workflow", "SettleReceipts", "fetch invoice", receipt.InvoiceId, ferr)
			continue
		}

		if invoice.CurrentStatus != models.InvoiceStatusUnpaid && invoice.CurrentStatus != models.InvoiceStatusPastDue {
			if serr := models.MarkReceiptSettled(ctx, receipt); serr != nil {
				config.LogError(logger, "workflow", "SettleReceipts", "settle terminal", receipt.ID, serr)
			}
			continue
		}

		status := SettlementStatus(invoice.DueDate, processedAt)
		if terr := models.TransitionInvoiceStatus(ctx, invoice, status); terr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "transition", invoice.ID, terr)
			continue
		}

		customer, cerr := utils.FetchModel[models.Customer](ctx, invoice.CompanyId, invoice.CustomerId)
		if cerr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "fetch customer", invoice.CustomerId, cerr)
		} else if berr := models.AdjustCustomerCreditBalance(ctx, customer, invoice.Amount.Neg()); berr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "adjust balance", customer.ID, berr)
		}

		if serr := models.MarkReceiptSettled(ctx, receipt); serr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "mark settled", receipt.ID, serr)
		}

		column := "invoices_paid"
		if status == models.InvoiceStatusPaid {
			paid++
		} else {
			late++
			column = "invoices_late"
		}
		if ierr := models.IncrementDailySummary(ctx, receipt.CompanyId, day, column, 1); ierr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "summary", receipt.CompanyId, ierr)
		}
		if ierr := models.IncrementDailySummary(ctx, receipt.CompanyId, day, "receipts_processed", 1); ierr != nil {
			config.LogError(logger, "workflow", "SettleReceipts", "summary receipts", receipt.CompanyId, ierr)
		}
	}
	return paid, late, nil
}

func (s *Scheduler) runSettleReceipts(ctx context.Context) error {
	paid, late, err := SettleReceipts(ctx, time.Now())
	if err != nil {
		return err
	}
	if paid+late > 0 {
		s.Logger.WithFields(map[string]interface{}{"paid": paid, "late": late}).Info("receipt settlement done")
	}
	return nil
}
