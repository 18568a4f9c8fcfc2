package mirror

import "testing"

func TestFeedKey_CompanyScopedPaths(t *testing.T) {
	t.Setenv("MIRROR_ROOT", "")

	cases := []struct {
		feed     string
		expected string
	}{
		{FeedCustomers, "creditbook:42:customers"},
		{FeedInvoices, "creditbook:42:invoices"},
		{FeedReceipts, "creditbook:42:receipts"},
		{FeedUsers, "creditbook:42:users"},
	}
	for _, tc := range cases {
		if got := FeedKey(42, tc.feed); got != tc.expected {
			t.Fatalf("FeedKey(42, %s) expected %s, got %s", tc.feed, tc.expected, got)
		}
	}
}

func TestFeedKey_CompaniesAreCompanyIndependent(t *testing.T) {
	t.Setenv("MIRROR_ROOT", "")

	a := FeedKey(1, FeedCompanies)
	b := FeedKey(2, FeedCompanies)
	if a != b {
		t.Fatalf("companies feed must not be company scoped: %s vs %s", a, b)
	}
	if a != "creditbook:companies" {
		t.Fatalf("expected creditbook:companies, got %s", a)
	}
}

func TestChannelKey_HonorsRootOverride(t *testing.T) {
	t.Setenv("MIRROR_ROOT", "staging")

	if got := ChannelKey(7, FeedInvoices); got != "staging:7:feed:invoices" {
		t.Fatalf("expected staging:7:feed:invoices, got %s", got)
	}
}
