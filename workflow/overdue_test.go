package workflow

import (
	"testing"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/models"
)

func day(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func TestIsOverdue_ComparesCalendarDays(t *testing.T) {
	now := day(2025, 3, 15, 10, 30)
	cases := []struct {
		name    string
		due     time.Time
		overdue bool
	}{
		{"due yesterday", day(2025, 3, 14, 0, 0), true},
		{"due yesterday late evening", day(2025, 3, 14, 23, 59), true},
		{"due today, earlier hour", day(2025, 3, 15, 1, 0), false},
		{"due today, later hour", day(2025, 3, 15, 23, 0), false},
		{"due tomorrow", day(2025, 3, 16, 0, 0), false},
		{"due last month", day(2025, 2, 15, 12, 0), true},
	}
	for _, tc := range cases {
		if got := IsOverdue(tc.due, now); got != tc.overdue {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.overdue, got)
		}
	}
}

func TestSettlementStatus(t *testing.T) {
	processedAt := day(2025, 3, 15, 10, 0)
	cases := []struct {
		name     string
		due      time.Time
		expected models.InvoiceStatus
	}{
		{"due date ahead", day(2025, 3, 20, 0, 0), models.InvoiceStatusPaid},
		{"due later the same day", day(2025, 3, 15, 18, 0), models.InvoiceStatusPaid},
		{"due exactly at processing", processedAt, models.InvoiceStatusLatePayment},
		{"past due", day(2025, 3, 10, 0, 0), models.InvoiceStatusLatePayment},
	}
	for _, tc := range cases {
		if got := SettlementStatus(tc.due, processedAt); got != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestReminderWindow(t *testing.T) {
	enabled := models.ReminderSettings{Enabled: true, Hour: 9, Minute: 30}
	cases := []struct {
		name     string
		settings models.ReminderSettings
		now      time.Time
		expected bool
	}{
		{"disabled never fires", models.ReminderSettings{Enabled: false, Hour: 0}, day(2025, 3, 15, 23, 0), false},
		{"before the window", enabled, day(2025, 3, 15, 9, 29), false},
		{"exactly at the window", enabled, day(2025, 3, 15, 9, 30), true},
		{"after the window", enabled, day(2025, 3, 15, 17, 0), true},
	}
	for _, tc := range cases {
		if got := ReminderWindow(tc.settings, tc.now); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestNeedsReminder(t *testing.T) {
	now := day(2025, 3, 15, 10, 0)
	cases := []struct {
		name     string
		status   models.InvoiceStatus
		due      time.Time
		expected bool
	}{
		{"past due always reminds", models.InvoiceStatusPastDue, day(2025, 2, 1, 0, 0), true},
		{"unpaid due today", models.InvoiceStatusUnpaid, day(2025, 3, 15, 0, 0), true},
		{"unpaid due at window edge", models.InvoiceStatusUnpaid, day(2025, 3, 18, 0, 0), true},
		{"unpaid due beyond window", models.InvoiceStatusUnpaid, day(2025, 3, 19, 0, 0), false},
		{"paid never reminds", models.InvoiceStatusPaid, day(2025, 3, 15, 0, 0), false},
		{"late payment never reminds", models.InvoiceStatusLatePayment, day(2025, 3, 1, 0, 0), false},
	}
	for _, tc := range cases {
		invoice := &models.Invoice{CurrentStatus: tc.status, DueDate: tc.due}
		if got := NeedsReminder(invoice, now); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestScoringInvoices_PreservesOrderAndStatus(t *testing.T) {
	rows := []*models.Invoice{
		{ID: 1, CurrentStatus: models.InvoiceStatusPaid},
		{ID: 2, CurrentStatus: models.InvoiceStatusPastDue},
		{ID: 3, CurrentStatus: models.InvoiceStatusUnpaid},
	}
	out := ScoringInvoices(rows)
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	expected := []string{"Paid", "PastDue", "Unpaid"}
	for i, status := range expected {
		if out[i].Status != status {
			t.Fatalf("entry %d: expected status %s, got %s", i, status, out[i].Status)
		}
	}
}
