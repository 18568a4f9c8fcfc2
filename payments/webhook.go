package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PubSubPushEnvelope is the wrapper Google Pub/Sub wraps around a pushed
// message. The byte slice unmarshalling handles base64 decoding.
type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

const (
	dedupeTTL  = 48 * time.Hour
	paidAtWire = "2006-01-02T15:04:05Z07:00"
)

var (
	errEventIncomplete = errors.New("payment event missing event_id, company_id or invoice_id")
	errInvoiceUnknown  = errors.New("payment event references unknown invoice")
)

// permanentFailure reports whether redelivering the event could ever help.
// Incomplete events and events for unknown invoices stay broken forever, so
// they get acked and logged instead of looping through retries.
func permanentFailure(err error) bool {
	return errors.Is(err, errEventIncomplete) || errors.Is(err, errInvoiceUnknown)
}

// PushHandler acks malformed envelopes and permanently broken events with 204;
// Pub/Sub redelivery cannot fix a bad payload. Well-formed events that fail on
// a transient error return 500 so Pub/Sub retries, with both dedupe claims
// already released by ProcessPaymentEvent.
func PushHandler() gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var event config.PaymentEvent
		if err := json.Unmarshal(envelope.Message.Data, &event); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		if err := ProcessPaymentEvent(c.Request.Context(), event); err != nil {
			config.LogError(logger, "payments", "PushHandler", "process", event.EventId, err)
			if !permanentFailure(err) {
				// Non-2xx tells Pub/Sub to retry.
				c.Status(http.StatusInternalServerError)
				return
			}
		}
		c.Status(http.StatusNoContent)
	}
}

// ProcessPaymentEvent turns a provider payment completion into a receipt.
// Exactly-once per event_id: a redis SetNX short-circuits the common
// redelivery, the unique ledger insert is the durable guarantee. The
// settlement worker picks the receipt up from there.
func ProcessPaymentEvent(ctx context.Context, event config.PaymentEvent) error {
	if event.EventId == "" || event.CompanyId == 0 || event.InvoiceId == 0 {
		return errEventIncomplete
	}

	seen, err := config.SetRedisValueNX("payment:event:"+event.EventId, "1", dedupeTTL)
	if err != nil {
		return err
	}
	if !seen {
		return nil
	}

	claimed, err := models.ClaimPaymentEvent(ctx, event.EventId, event.CompanyId, event.InvoiceId)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if err := applyPaymentEvent(ctx, event); err != nil {
		// Release both claims so Pub/Sub redelivery can retry.
		if rerr := models.ReleasePaymentEvent(ctx, event.EventId); rerr != nil {
			config.LogError(config.GetLogger(), "payments", "ProcessPaymentEvent", "release ledger", event.EventId, rerr)
		}
		if rerr := config.RemoveRedisKey("payment:event:" + event.EventId); rerr != nil {
			config.LogError(config.GetLogger(), "payments", "ProcessPaymentEvent", "release claim", event.EventId, rerr)
		}
		return err
	}
	return nil
}

func applyPaymentEvent(ctx context.Context, event config.PaymentEvent) error {
	invoice, err := utils.FetchModel[models.Invoice](ctx, event.CompanyId, event.InvoiceId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return errInvoiceUnknown
		}
		return err
	}

	if event.Amount != "" {
		amount, perr := decimal.NewFromString(event.Amount)
		if perr != nil {
			return fmt.Errorf("payment event amount %q: %w", event.Amount, perr)
		}
		if !amount.Equal(invoice.Amount) {
			config.GetLogger().WithFields(map[string]interface{}{
				"event_id":       event.EventId,
				"invoice_id":     invoice.ID,
				"event_amount":   amount.String(),
				"invoice_amount": invoice.Amount.String(),
			}).Warn("payment amount differs from invoice amount")
		}
	}

	receiptDate := time.Now()
	if event.PaidAt != "" {
		if parsed, perr := time.Parse(paidAtWire, event.PaidAt); perr == nil {
			receiptDate = parsed
		}
	}

	number, err := mirror.NextReceiptNumber(ctx, event.CompanyId)
	if err != nil {
		return err
	}

	_, err = models.CreateReceiptFromPayment(ctx, event.CompanyId, invoice.ID,
		fmt.Sprintf("RCPT-%06d", number), receiptDate)
	return err
}
