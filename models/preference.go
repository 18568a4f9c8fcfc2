package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"gorm.io/gorm/clause"
)

// Preference rows replace the mobile app's key-value preference flags.
// Company-scoped, cached in redis; workers read them every run.

type Preference struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index:idx_pref_company_key,unique;not null" json:"company_id"`
	Key       string    `gorm:"index:idx_pref_company_key,unique;size:50;not null" json:"key"`
	Value     string    `gorm:"size:255" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	PrefReminderEnabled = "reminder_enabled"
	PrefReminderHour    = "reminder_hour"
	PrefReminderMinute  = "reminder_minute"
	PrefSummaryHour     = "summary_hour"
	PrefSummaryMinute   = "summary_minute"
)

// ReminderSettings is the decoded view the reminder worker consumes.
type ReminderSettings struct {
	Enabled bool `json:"enabled"`
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
}

func preferenceCacheKey(companyId int) string {
	return fmt.Sprintf("Preference:%d", companyId)
}

// SetPreference upserts one key and invalidates the company's cache entry.
func SetPreference(ctx context.Context, companyId int, key string, value string) error {
	pref := Preference{
		CompanyId: companyId,
		Key:       key,
		Value:     value,
	}
	db := config.GetDB()
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&pref).Error
	if err != nil {
		return err
	}
	return config.RemoveRedisKey(preferenceCacheKey(companyId))
}

// GetPreferences returns the full key/value map for a company, redis-cached.
func GetPreferences(ctx context.Context, companyId int) (map[string]string, error) {
	key := preferenceCacheKey(companyId)

	var prefs map[string]string
	if exists, err := config.GetRedisObject(key, &prefs); err != nil {
		return nil, err
	} else if exists {
		return prefs, nil
	}

	rows, err := utils.FetchAllModels[Preference](ctx, companyId)
	if err != nil {
		return nil, err
	}
	prefs = make(map[string]string, len(rows))
	for _, row := range rows {
		prefs[row.Key] = row.Value
	}

	if err := config.SetRedisObject(key, prefs, time.Hour); err != nil {
		return nil, err
	}
	return prefs, nil
}

// GetReminderSettings decodes the reminder preference keys. Missing keys
// default to disabled at 09:00.
func GetReminderSettings(ctx context.Context, companyId int) (ReminderSettings, error) {
	prefs, err := GetPreferences(ctx, companyId)
	if err != nil {
		return ReminderSettings{}, err
	}
	settings := ReminderSettings{
		Enabled: prefs[PrefReminderEnabled] == "true",
		Hour:    9,
		Minute:  0,
	}
	if v, ok := prefs[PrefReminderHour]; ok {
		fmt.Sscanf(v, "%d", &settings.Hour)
	}
	if v, ok := prefs[PrefReminderMinute]; ok {
		fmt.Sscanf(v, "%d", &settings.Minute)
	}
	return settings, nil
}
