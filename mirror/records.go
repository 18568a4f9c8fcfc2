package mirror

import "github.com/shopspring/decimal"

// Feed names double as path segments under the mirror root.
const (
	FeedCustomers = "customers"
	FeedInvoices  = "invoices"
	FeedReceipts  = "receipts"
	FeedUsers     = "users"
	FeedCompanies = "companies"
)

// Meta carries the sync markers every mirror record has. LastModified is
// epoch millis of the originating local write; it is the sole basis for
// conflict resolution. IsDeleted is the remote-side tombstone; the local
// store hard-deletes instead.
type Meta struct {
	Id           int   `json:"id"`
	LastModified int64 `json:"last_modified"`
	IsDeleted    bool  `json:"is_deleted"`
}

type CustomerRecord struct {
	Meta
	CompanyId     int             `json:"company_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
	CreditScore   int             `json:"credit_score"`
}

type InvoiceRecord struct {
	Meta
	CompanyId     int             `json:"company_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerId    int             `json:"customer_id"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}

type ReceiptRecord struct {
	Meta
	CompanyId     int    `json:"company_id"`
	ReceiptNumber string `json:"receipt_number"`
	InvoiceId     int    `json:"invoice_id"`
	ReceiptDate   string `json:"receipt_date"`
}

type UserRecord struct {
	Meta
	CompanyId   int    `json:"company_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessLevel string `json:"access_level"`
}

type CompanyRecord struct {
	Meta
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// DateLayout is the wire format for invoice/receipt dates.
const DateLayout = "2006-01-02"
