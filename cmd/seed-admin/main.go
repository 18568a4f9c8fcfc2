// seed-admin bootstraps a company with its admin user so the API has a valid
// X-Company-Id / X-User-Id pair to start from.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  SEED_COMPANY_NAME="My Shop" SEED_ADMIN_EMAIL=owner@example.com \
//	  SEED_ADMIN_PASSWORD=changeme go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/models"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"gorm.io/gorm"
)

func main() {
	companyName := os.Getenv("SEED_COMPANY_NAME")
	if companyName == "" {
		companyName = "Creditbook Demo"
	}
	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	adminName := os.Getenv("SEED_ADMIN_NAME")
	if adminName == "" {
		adminName = "Administrator"
	}
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var company models.Company
	err := db.WithContext(ctx).Where("name = ?", companyName).First(&company).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "failed to lookup company: %v\n", err)
			os.Exit(1)
		}
		created, cerr := models.CreateCompany(ctx, &models.NewCompany{Name: companyName})
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to create company: %v\n", cerr)
			os.Exit(1)
		}
		company = *created
		fmt.Printf("Created company %q (id=%d)\n", company.Name, company.ID)
	}

	ctx = utils.SetCompanyIdInContext(ctx, company.ID)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetIsAdminInContext(ctx, true)

	var existing models.User
	err = db.WithContext(ctx).
		Where("company_id = ? AND email = ?", company.ID, adminEmail).
		First(&existing).Error
	if err == nil {
		hashed, herr := utils.HashPassword(adminPassword)
		if herr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", herr)
			os.Exit(1)
		}
		uerr := db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
			"Name":         adminName,
			"PasswordHash": string(hashed),
			"AccessLevel":  models.AccessLevelAdmin,
			"LastModified": utils.NowMillis(),
		}).Error
		if uerr != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", uerr)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user %q (id=%d company_id=%d)\n", adminEmail, existing.ID, company.ID)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	user, err := models.CreateUser(ctx, &models.NewUser{
		Name:        adminName,
		Email:       adminEmail,
		Password:    adminPassword,
		AccessLevel: models.AccessLevelAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created admin user %q (id=%d company_id=%d)\n", user.Email, user.ID, company.ID)
}
