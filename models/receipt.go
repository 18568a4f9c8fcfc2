package models

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

// Receipts are push-only on the sync path: local writes go out to the mirror
// but there is no pull listener for the receipts feed.

type Receipt struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CompanyId     int       `gorm:"index;not null" json:"company_id" binding:"required"`
	ReceiptNumber string    `gorm:"size:50;not null" json:"receipt_number" binding:"required"`
	InvoiceId     int       `gorm:"index;not null" json:"invoice_id" binding:"required"`
	Invoice       *Invoice  `gorm:"foreignKey:InvoiceId" json:"invoice,omitempty"`
	ReceiptDate   time.Time `gorm:"not null" json:"receipt_date" binding:"required"`
	Settled       bool      `gorm:"not null;default:false" json:"settled"`
	LastModified  int64     `gorm:"not null;default:0" json:"last_modified"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReceipt struct {
	ReceiptNumber string    `json:"receipt_number" binding:"required"`
	InvoiceId     int       `json:"invoice_id" binding:"required"`
	ReceiptDate   time.Time `json:"receipt_date" binding:"required"`
}

func (input *NewReceipt) validate(ctx context.Context, companyId int, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Receipt](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Invoice](ctx, companyId, input.InvoiceId); err != nil {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func (r *Receipt) ToMirrorRecord() mirror.ReceiptRecord {
	return mirror.ReceiptRecord{
		Meta: mirror.Meta{
			Id:           r.ID,
			LastModified: r.LastModified,
		},
		CompanyId:     r.CompanyId,
		ReceiptNumber: r.ReceiptNumber,
		InvoiceId:     r.InvoiceId,
		ReceiptDate:   r.ReceiptDate.Format(mirror.DateLayout),
	}
}

func CreateReceipt(ctx context.Context, input *NewReceipt) (*Receipt, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	receipt := Receipt{
		CompanyId:     companyId,
		ReceiptNumber: input.ReceiptNumber,
		InvoiceId:     input.InvoiceId,
		ReceiptDate:   input.ReceiptDate,
		LastModified:  utils.NowMillis(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(companyId, mirror.FeedReceipts, receipt.ID, receipt.ToMirrorRecord())
	return &receipt, nil
}

func DeleteReceipt(ctx context.Context, id int) (*Receipt, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	receipt, err := utils.FetchModel[Receipt](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(receipt).Error; err != nil {
		return nil, err
	}

	pushMirrorDelete(companyId, mirror.FeedReceipts, receipt.ID)
	return receipt, nil
}

func GetReceipt(ctx context.Context, id int) (*Receipt, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}
	return utils.FetchModel[Receipt](ctx, companyId, id)
}

func GetAllReceipts(ctx context.Context, invoiceId *int) ([]*Receipt, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	db := config.GetDB()
	var results []*Receipt
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if invoiceId != nil && *invoiceId > 0 {
		dbCtx = dbCtx.Where("invoice_id = ?", *invoiceId)
	}
	if err := dbCtx.Order("receipt_date").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

/* Worker entry points */

// CreateReceiptFromPayment records a receipt delivered by the payment
// webhook. The webhook carries its own company id, so no context scoping.
func CreateReceiptFromPayment(ctx context.Context, companyId int, invoiceId int, receiptNumber string, receiptDate time.Time) (*Receipt, error) {
	receipt := Receipt{
		CompanyId:     companyId,
		ReceiptNumber: receiptNumber,
		InvoiceId:     invoiceId,
		ReceiptDate:   receiptDate,
		LastModified:  utils.NowMillis(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(companyId, mirror.FeedReceipts, receipt.ID, receipt.ToMirrorRecord())
	return &receipt, nil
}

// GetUnsettledReceipts returns receipts the aggregation worker has not yet
// applied to their invoices, across all companies.
func GetUnsettledReceipts(ctx context.Context) ([]*Receipt, error) {
	db := config.GetDB()
	var results []*Receipt
	if err := db.WithContext(ctx).Where("settled = ?", false).Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkReceiptSettled records that the aggregation worker consumed this
// receipt. Settlement is a worker bookkeeping flag, not a synced field, so no
// stamp and no push.
func MarkReceiptSettled(ctx context.Context, receipt *Receipt) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(receipt).Update("Settled", true).Error; err != nil {
		return err
	}
	receipt.Settled = true
	return nil
}
