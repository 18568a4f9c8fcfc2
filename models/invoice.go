package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid      InvoiceStatus = "Unpaid"
	InvoiceStatusPastDue     InvoiceStatus = "PastDue"
	InvoiceStatusPaid        InvoiceStatus = "Paid"
	InvoiceStatusLatePayment InvoiceStatus = "LatePayment"
)

// Unpaid is initial; Paid and LatePayment are terminal. The overdue worker
// moves Unpaid past its due date to PastDue; receipt aggregation settles
// Unpaid/PastDue to Paid or LatePayment.

type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     int             `gorm:"index;not null" json:"company_id" binding:"required"`
	InvoiceNumber string          `gorm:"size:50;not null" json:"invoice_number" binding:"required"`
	CustomerId    int             `gorm:"index;not null" json:"customer_id" binding:"required"`
	Customer      *Customer       `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	IssueDate     time.Time       `gorm:"not null" json:"issue_date" binding:"required"`
	DueDate       time.Time       `gorm:"not null" json:"due_date" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CurrentStatus InvoiceStatus   `gorm:"type:enum('Unpaid','PastDue','Paid','LatePayment');not null;default:'Unpaid'" json:"current_status"`
	LastModified  int64           `gorm:"not null;default:0" json:"last_modified"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	InvoiceNumber string          `json:"invoice_number" binding:"required"`
	CustomerId    int             `json:"customer_id" binding:"required"`
	IssueDate     time.Time       `json:"issue_date" binding:"required"`
	DueDate       time.Time       `json:"due_date" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

func (input *NewInvoice) validate(ctx context.Context, companyId int, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Invoice](ctx, companyId, id); err != nil {
			return err
		}
	}
	// customer must exist; invoice numbers are company-scoped, not unique
	if err := utils.ValidateResourceId[Customer](ctx, companyId, input.CustomerId); err != nil {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func (inv *Invoice) ToMirrorRecord() mirror.InvoiceRecord {
	return mirror.InvoiceRecord{
		Meta: mirror.Meta{
			Id:           inv.ID,
			LastModified: inv.LastModified,
		},
		CompanyId:     inv.CompanyId,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerId:    inv.CustomerId,
		IssueDate:     inv.IssueDate.Format(mirror.DateLayout),
		DueDate:       inv.DueDate.Format(mirror.DateLayout),
		Amount:        inv.Amount,
		Status:        string(inv.CurrentStatus),
	}
}

// ErrorMalformedMirrorRecord marks remote records that cannot be decoded into
// a local row. The reconciler skips them; redelivery cannot fix bad data.
var ErrorMalformedMirrorRecord = errors.New("malformed mirror record")

func InvoiceFromMirror(rec mirror.InvoiceRecord) (Invoice, error) {
	issue, err := time.Parse(mirror.DateLayout, rec.IssueDate)
	if err != nil {
		return Invoice{}, fmt.Errorf("%w: issue_date %q", ErrorMalformedMirrorRecord, rec.IssueDate)
	}
	due, err := time.Parse(mirror.DateLayout, rec.DueDate)
	if err != nil {
		return Invoice{}, fmt.Errorf("%w: due_date %q", ErrorMalformedMirrorRecord, rec.DueDate)
	}
	status := InvoiceStatus(rec.Status)
	if status == "" {
		status = InvoiceStatusUnpaid
	}
	return Invoice{
		ID:            rec.Id,
		CompanyId:     rec.CompanyId,
		InvoiceNumber: rec.InvoiceNumber,
		CustomerId:    rec.CustomerId,
		IssueDate:     issue,
		DueDate:       due,
		Amount:        rec.Amount,
		CurrentStatus: status,
		LastModified:  rec.LastModified,
	}, nil
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	invoice := Invoice{
		CompanyId:     companyId,
		InvoiceNumber: input.InvoiceNumber,
		CustomerId:    input.CustomerId,
		IssueDate:     input.IssueDate,
		DueDate:       input.DueDate,
		Amount:        input.Amount,
		CurrentStatus: InvoiceStatusUnpaid,
		LastModified:  utils.NowMillis(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(companyId, mirror.FeedInvoices, invoice.ID, invoice.ToMirrorRecord())
	return &invoice, nil
}

func UpdateInvoice(ctx context.Context, id int, input *NewInvoice) (*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	invoice, err := utils.FetchModel[Invoice](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stamp := utils.NowMillis()
	if err := db.WithContext(ctx).Model(invoice).
		Updates(map[string]interface{}{
			"InvoiceNumber": input.InvoiceNumber,
			"CustomerId":    input.CustomerId,
			"IssueDate":     input.IssueDate,
			"DueDate":       input.DueDate,
			"Amount":        input.Amount,
			"LastModified":  stamp,
		}).Error; err != nil {
		return nil, err
	}
	invoice.InvoiceNumber = input.InvoiceNumber
	invoice.CustomerId = input.CustomerId
	invoice.IssueDate = input.IssueDate
	invoice.DueDate = input.DueDate
	invoice.Amount = input.Amount
	invoice.LastModified = stamp

	pushMirrorUpsert(companyId, mirror.FeedInvoices, invoice.ID, invoice.ToMirrorRecord())
	return invoice, nil
}

func DeleteInvoice(ctx context.Context, id int) (*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	invoice, err := utils.FetchModel[Invoice](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(invoice).Error; err != nil {
		return nil, err
	}

	pushMirrorDelete(companyId, mirror.FeedInvoices, invoice.ID)
	return invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}
	return utils.FetchModel[Invoice](ctx, companyId, id)
}

func GetAllInvoices(ctx context.Context, customerId *int, status *InvoiceStatus) ([]*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	db := config.GetDB()
	var results []*Invoice
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}
	if err := dbCtx.Order("due_date").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetCustomerInvoices returns a customer's full invoice history; the scoring
// engine takes the whole list.
func GetCustomerInvoices(ctx context.Context, companyId int, customerId int) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice
	err := db.WithContext(ctx).
		Where("company_id = ? AND customer_id = ?", companyId, customerId).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

/* Reconciler / worker entry points. These never push back to the mirror,
   except the explicit status transition below which behaves like any local
   mutation. */

func UpsertInvoiceFromMirror(ctx context.Context, rec mirror.InvoiceRecord) error {
	invoice, err := InvoiceFromMirror(rec)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&invoice).Error
}

func DeleteInvoiceLocal(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Invoice{}, id).Error
}

// TransitionInvoiceStatus persists a worker-driven status change, stamping
// and pushing like a user mutation.
func TransitionInvoiceStatus(ctx context.Context, invoice *Invoice, status InvoiceStatus) error {
	db := config.GetDB()
	stamp := utils.NowMillis()
	if err := db.WithContext(ctx).Model(invoice).
		Updates(map[string]interface{}{
			"CurrentStatus": status,
			"LastModified":  stamp,
		}).Error; err != nil {
		return err
	}
	invoice.CurrentStatus = status
	invoice.LastModified = stamp
	pushMirrorUpsert(invoice.CompanyId, mirror.FeedInvoices, invoice.ID, invoice.ToMirrorRecord())
	return nil
}
