package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"github.com/gin-gonic/gin"
)

func TestPushEnvelope_DecodesBase64Payload(t *testing.T) {
	payload := `{"event_id":"evt-1","company_id":3,"invoice_id":12,"amount":"150.00","paid_at":"2025-03-15T10:00:00Z"}`
	body := `{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte(payload)) + `","messageId":"m-1"},"subscription":"projects/p/subscriptions/s"}`

	var envelope PubSubPushEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		t.Fatalf("envelope unmarshal: %v", err)
	}
	if envelope.Message.ID != "m-1" {
		t.Fatalf("expected message id m-1, got %s", envelope.Message.ID)
	}

	var event config.PaymentEvent
	if err := json.Unmarshal(envelope.Message.Data, &event); err != nil {
		t.Fatalf("event unmarshal: %v", err)
	}
	if event.EventId != "evt-1" || event.CompanyId != 3 || event.InvoiceId != 12 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Amount != "150.00" {
		t.Fatalf("expected amount 150.00, got %s", event.Amount)
	}
}

func TestProcessPaymentEvent_RejectsIncompleteEvents(t *testing.T) {
	cases := []struct {
		name  string
		event config.PaymentEvent
	}{
		{"missing event id", config.PaymentEvent{CompanyId: 1, InvoiceId: 2}},
		{"missing company", config.PaymentEvent{EventId: "e", InvoiceId: 2}},
		{"missing invoice", config.PaymentEvent{EventId: "e", CompanyId: 1}},
	}
	for _, tc := range cases {
		err := ProcessPaymentEvent(context.Background(), tc.event)
		if !errors.Is(err, errEventIncomplete) {
			t.Fatalf("%s: expected errEventIncomplete, got %v", tc.name, err)
		}
	}
}

func TestPermanentFailure(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"incomplete event", errEventIncomplete, true},
		{"unknown invoice", errInvoiceUnknown, true},
		{"wrapped unknown invoice", fmt.Errorf("apply: %w", errInvoiceUnknown), true},
		{"transient error", errors.New("dial tcp: connection refused"), false},
	}
	for _, tc := range cases {
		if got := permanentFailure(tc.err); got != tc.permanent {
			t.Fatalf("%s: permanentFailure = %v, want %v", tc.name, got, tc.permanent)
		}
	}
}

func pushRequest(body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/payments", PushHandler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestPushHandler_AcksMalformedEnvelope(t *testing.T) {
	// Redelivery cannot fix a bad payload; ack so Pub/Sub stops retrying.
	if w := pushRequest("not json"); w.Code != http.StatusNoContent {
		t.Fatalf("malformed envelope: expected 204, got %d", w.Code)
	}
	if w := pushRequest(`{"message":{"data":"bm90IGpzb24=","messageId":"m-1"}}`); w.Code != http.StatusNoContent {
		t.Fatalf("malformed event payload: expected 204, got %d", w.Code)
	}
}

func TestPushHandler_AcksPermanentlyBrokenEvents(t *testing.T) {
	// An event missing its ids will never succeed, so the handler must ack it
	// rather than bounce it back into the retry loop.
	payload := `{"event_id":"evt-broken","company_id":0,"invoice_id":0}`
	body := `{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte(payload)) + `","messageId":"m-2"},"subscription":"s"}`
	if w := pushRequest(body); w.Code != http.StatusNoContent {
		t.Fatalf("incomplete event: expected 204, got %d", w.Code)
	}
}
