package models

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailySummary accumulates the per-day counters the workers report:
// overdue transitions, paid/late settlements, score updates, receipts
// consumed. One row per company per day.

type DailySummary struct {
	ID                int       `gorm:"primary_key" json:"id"`
	CompanyId         int       `gorm:"index:idx_summary_company_day,unique;not null" json:"company_id"`
	Day               string    `gorm:"index:idx_summary_company_day,unique;size:10;not null" json:"day"`
	MarkedOverdue     int       `gorm:"not null;default:0" json:"marked_overdue"`
	InvoicesPaid      int       `gorm:"not null;default:0" json:"invoices_paid"`
	InvoicesLate      int       `gorm:"not null;default:0" json:"invoices_late"`
	ScoresUpdated     int       `gorm:"not null;default:0" json:"scores_updated"`
	ReceiptsProcessed int       `gorm:"not null;default:0" json:"receipts_processed"`
	Finalized         bool      `gorm:"not null;default:false" json:"finalized"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SummaryDay is the canonical day key for summary rows.
func SummaryDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// IncrementDailySummary adds n to one counter column of today's row,
// creating the row if this is the first report of the day.
func IncrementDailySummary(ctx context.Context, companyId int, day string, column string, n int) error {
	if n == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).
		Model(&DailySummary{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{column: gorm.Expr(column+" + ?", n)}),
		}).
		Create(map[string]interface{}{
			"company_id": companyId,
			"day":        day,
			column:       n,
		}).Error
}

// FinalizeDailySummary closes out a day's row so the summary notification
// job reports each day once.
func FinalizeDailySummary(ctx context.Context, companyId int, day string) (*DailySummary, error) {
	db := config.GetDB()
	var summary DailySummary
	err := db.WithContext(ctx).
		Where("company_id = ? AND day = ?", companyId, day).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	if summary.Finalized {
		return &summary, nil
	}
	if err := db.WithContext(ctx).Model(&summary).Update("Finalized", true).Error; err != nil {
		return nil, err
	}
	summary.Finalized = true
	return &summary, nil
}

func GetDailySummary(ctx context.Context, companyId int, day string) (*DailySummary, error) {
	db := config.GetDB()
	var summary DailySummary
	err := db.WithContext(ctx).
		Where("company_id = ? AND day = ?", companyId, day).
		First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
