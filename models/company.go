package models

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

type Company struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address      string    `gorm:"size:255" json:"address"`
	Phone        string    `gorm:"size:20" json:"phone"`
	LastModified int64     `gorm:"not null;default:0" json:"last_modified"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// CreateCompany(newCompany) (Company,error)
// UpdateCompany(id, newCompany) (Company,error)
// DeleteCompany(id) (Company,error)
// GetCompany(id) (Company,error)

func (input *NewCompany) validate(ctx context.Context) error {
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func (c *Company) toMirrorRecord() mirror.CompanyRecord {
	return mirror.CompanyRecord{
		Meta: mirror.Meta{
			Id:           c.ID,
			LastModified: c.LastModified,
		},
		Name:    c.Name,
		Address: c.Address,
		Phone:   c.Phone,
	}
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	company := Company{
		Name:         input.Name,
		Address:      input.Address,
		Phone:        input.Phone,
		LastModified: utils.NowMillis(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(company.ID, mirror.FeedCompanies, company.ID, company.toMirrorRecord())
	return &company, nil
}

func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	company, err := utils.FetchSingleModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stamp := utils.NowMillis()
	if err := db.WithContext(ctx).Model(company).
		Updates(map[string]interface{}{
			"Name":         input.Name,
			"Address":      input.Address,
			"Phone":        input.Phone,
			"LastModified": stamp,
		}).Error; err != nil {
		return nil, err
	}
	company.Name = input.Name
	company.Address = input.Address
	company.Phone = input.Phone
	company.LastModified = stamp

	pushMirrorUpsert(company.ID, mirror.FeedCompanies, company.ID, company.toMirrorRecord())
	return company, nil
}

func DeleteCompany(ctx context.Context, id int) (*Company, error) {
	company, err := utils.FetchSingleModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}

	// Do not delete a company that still has users.
	count, err := utils.ResourceCountWhere[User](ctx, id, "1 = 1")
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errorCompanyInUse
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(company).Error; err != nil {
		return nil, err
	}

	pushMirrorDelete(company.ID, mirror.FeedCompanies, company.ID)
	return company, nil
}

func GetCompany(ctx context.Context, id int) (*Company, error) {
	return utils.FetchSingleModel[Company](ctx, id)
}

func GetAllCompanies(ctx context.Context) ([]*Company, error) {
	db := config.GetDB()
	var results []*Company
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
