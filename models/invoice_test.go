package models

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"github.com/shopspring/decimal"
)

func TestInvoiceFromMirror_EmptyStatusDefaultsToUnpaid(t *testing.T) {
	rec := mirror.InvoiceRecord{
		Meta:          mirror.Meta{Id: 5, LastModified: 123},
		CompanyId:     2,
		InvoiceNumber: "INV-001",
		CustomerId:    9,
		IssueDate:     "2025-03-01",
		DueDate:       "2025-03-31",
		Amount:        decimal.NewFromInt(250),
	}
	inv, err := InvoiceFromMirror(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.CurrentStatus != InvoiceStatusUnpaid {
		t.Fatalf("expected Unpaid, got %s", inv.CurrentStatus)
	}
	if inv.ID != 5 || inv.LastModified != 123 {
		t.Fatalf("identity lost: id=%d stamp=%d", inv.ID, inv.LastModified)
	}
	if inv.DueDate.Format(mirror.DateLayout) != "2025-03-31" {
		t.Fatalf("due date parsed as %s", inv.DueDate.Format(mirror.DateLayout))
	}
}

func TestInvoiceMirrorRoundTrip_KeepsStatus(t *testing.T) {
	original := Invoice{
		ID:            7,
		CompanyId:     3,
		InvoiceNumber: "INV-007",
		CustomerId:    11,
		IssueDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(99),
		CurrentStatus: InvoiceStatusPastDue,
		LastModified:  456,
	}
	back, err := InvoiceFromMirror(original.ToMirrorRecord())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.CurrentStatus != InvoiceStatusPastDue {
		t.Fatalf("status lost: %s", back.CurrentStatus)
	}
	if !back.Amount.Equal(original.Amount) {
		t.Fatalf("amount lost: %s", back.Amount)
	}
	if back.LastModified != original.LastModified {
		t.Fatalf("stamp lost: %d", back.LastModified)
	}
}

func TestInvoiceFromMirror_RejectsMalformedDates(t *testing.T) {
	cases := []struct {
		name string
		rec  mirror.InvoiceRecord
	}{
		{"bad due date", mirror.InvoiceRecord{
			Meta: mirror.Meta{Id: 1}, IssueDate: "2025-03-01", DueDate: "31/03/2025",
		}},
		{"empty issue date", mirror.InvoiceRecord{
			Meta: mirror.Meta{Id: 2}, DueDate: "2025-03-31",
		}},
	}
	for _, tc := range cases {
		if _, err := InvoiceFromMirror(tc.rec); !errors.Is(err, ErrorMalformedMirrorRecord) {
			t.Fatalf("%s: expected ErrorMalformedMirrorRecord, got %v", tc.name, err)
		}
	}
}

func TestSummaryDay(t *testing.T) {
	got := SummaryDay(time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC))
	if got != "2025-03-05" {
		t.Fatalf("expected 2025-03-05, got %s", got)
	}
}
