package models

import (
	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

// MigrateTable automigrates the full local schema. Referential integrity
// (invoice -> customer, receipt -> invoice, user -> company) is enforced
// here at the store level, not in application code.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Company{},
		&Customer{},
		&Invoice{},
		&Receipt{},
		&User{},
		&Preference{},
		&DailySummary{},
		&Notification{},
		&ProcessedPaymentEvent{},
	)
	utils.ErrorPanic(err)
}
