package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
)

// publish-payment-event publishes a synthetic payment completion event to the
// payment-events topic, for exercising the webhook end to end in dev.
//
// Example:
//   go run ./cmd/publish-payment-event \
//     --company_id=1 --invoice_id=42 --amount=150.00 --create_topic
func main() {
	var (
		eventID     = flag.String("event_id", "", "event_id (default: generated)")
		companyID   = flag.Int("company_id", 0, "company_id (required)")
		invoiceID   = flag.Int("invoice_id", 0, "invoice_id (required)")
		amount      = flag.String("amount", "", "paid amount (optional)")
		paidAtStr   = flag.String("paid_at", time.Now().UTC().Format(time.RFC3339), "payment time (RFC3339)")
		createTopic = flag.Bool("create_topic", false, "create the topic if it does not exist")
	)
	flag.Parse()

	if *companyID == 0 || *invoiceID == 0 {
		fmt.Fprintln(os.Stderr, "missing required flags")
		flag.Usage()
		os.Exit(2)
	}
	if *eventID == "" {
		*eventID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	ctx := context.Background()

	if *createTopic {
		topicName := os.Getenv("PAYMENT_EVENTS_TOPIC")
		if topicName == "" {
			topicName = "payment-events"
		}
		client, err := config.GetClient(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pubsub client: %v\n", err)
			os.Exit(1)
		}
		if _, err := config.CreateTopicIfNotExists(client, topicName); err != nil {
			fmt.Fprintf(os.Stderr, "create topic %s: %v\n", topicName, err)
			os.Exit(1)
		}
	}

	event := config.PaymentEvent{
		EventId:   *eventID,
		CompanyId: *companyID,
		InvoiceId: *invoiceID,
		Amount:    *amount,
		PaidAt:    *paidAtStr,
	}
	messageID, err := config.PublishPaymentEvent(ctx, event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "publish: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("published event_id=%s message_id=%s\n", event.EventId, messageID)
}
