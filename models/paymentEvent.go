package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

// ProcessedPaymentEvent is the durable dedupe ledger for the payments
// webhook. The redis claim is the fast path; the unique event_id insert is
// what actually guarantees one receipt per provider event across instances.
type ProcessedPaymentEvent struct {
	ID        int       `gorm:"primary_key" json:"id"`
	EventId   string    `gorm:"size:100;uniqueIndex;not null" json:"event_id"`
	CompanyId int       `gorm:"index;not null" json:"company_id"`
	InvoiceId int       `gorm:"not null" json:"invoice_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// ClaimPaymentEvent inserts the event's ledger row. Returns false when
// another delivery already claimed it.
func ClaimPaymentEvent(ctx context.Context, eventId string, companyId int, invoiceId int) (bool, error) {
	row := ProcessedPaymentEvent{
		EventId:   eventId,
		CompanyId: companyId,
		InvoiceId: invoiceId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReleasePaymentEvent removes a claim whose processing failed so Pub/Sub
// redelivery gets another attempt.
func ReleasePaymentEvent(ctx context.Context, eventId string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Where("event_id = ?", eventId).Delete(&ProcessedPaymentEvent{}).Error
}
