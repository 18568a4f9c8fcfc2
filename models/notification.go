package models

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
)

type NotificationKind string

const (
	NotificationKindReminder NotificationKind = "Reminder"
	NotificationKindSummary  NotificationKind = "Summary"
)

// Notification rows are what the reminder and summary workers emit. Actual
// delivery (email, push) is a downstream concern outside this repo.
type Notification struct {
	ID         int              `gorm:"primary_key" json:"id"`
	CompanyId  int              `gorm:"index;not null" json:"company_id"`
	CustomerId int              `gorm:"index" json:"customer_id"`
	InvoiceId  int              `gorm:"index" json:"invoice_id"`
	Kind       NotificationKind `gorm:"type:enum('Reminder','Summary');not null" json:"kind"`
	Message    string           `gorm:"size:500;not null" json:"message"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func CreateNotification(ctx context.Context, notification *Notification) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(notification).Error
}

func GetNotifications(ctx context.Context, companyId int, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = config.SearchLimit
	}
	db := config.GetDB()
	var results []*Notification
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("id DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
