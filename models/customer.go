package models

import (
	"context"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/scoring"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type Customer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     int             `gorm:"index;not null" json:"company_id" binding:"required"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email         string          `gorm:"size:100" json:"email"`
	Phone         string          `gorm:"size:20" json:"phone"`
	CreditBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_balance"`
	CreditScore   int             `gorm:"not null;default:60" json:"credit_score"`
	LastModified  int64           `gorm:"not null;default:0" json:"last_modified"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name          string          `json:"name" binding:"required"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// CreateCustomer(newCustomer) (Customer,error)
// UpdateCustomer(id, newCustomer) (Customer,error)
// DeleteCustomer(id) (Customer,error)
// GetCustomer(id) (Customer,error)
// GetAllCustomers(companyId) ([]Customer,error)

func (input *NewCustomer) validate(ctx context.Context, companyId int, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, companyId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Customer](ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func (c *Customer) ToMirrorRecord() mirror.CustomerRecord {
	return mirror.CustomerRecord{
		Meta: mirror.Meta{
			Id:           c.ID,
			LastModified: c.LastModified,
		},
		CompanyId:     c.CompanyId,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		CreditBalance: c.CreditBalance,
		CreditScore:   c.CreditScore,
	}
}

// CustomerFromMirror maps a pulled remote record onto a local row. The mirror
// id becomes the local primary key; the reconciler upserts by it.
func CustomerFromMirror(rec mirror.CustomerRecord) Customer {
	return Customer{
		ID:            rec.Id,
		CompanyId:     rec.CompanyId,
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		CreditBalance: rec.CreditBalance,
		CreditScore:   rec.CreditScore,
		LastModified:  rec.LastModified,
	}
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		CompanyId:     companyId,
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		CreditBalance: input.CreditBalance,
		CreditScore:   scoring.BaseScore,
		LastModified:  utils.NowMillis(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(companyId, mirror.FeedCustomers, customer.ID, customer.ToMirrorRecord())
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stamp := utils.NowMillis()
	if err := db.WithContext(ctx).Model(customer).
		Updates(map[string]interface{}{
			"Name":          input.Name,
			"Email":         input.Email,
			"Phone":         input.Phone,
			"CreditBalance": input.CreditBalance,
			"LastModified":  stamp,
		}).Error; err != nil {
		return nil, err
	}
	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.CreditBalance = input.CreditBalance
	customer.LastModified = stamp

	pushMirrorUpsert(companyId, mirror.FeedCustomers, customer.ID, customer.ToMirrorRecord())
	return customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	customer, err := utils.FetchModel[Customer](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// Local hard delete; the remote side only gets the tombstone flag.
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return nil, err
	}

	pushMirrorDelete(companyId, mirror.FeedCustomers, customer.ID)
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}
	return utils.FetchModel[Customer](ctx, companyId, id)
}

func GetAllCustomers(ctx context.Context, name *string) ([]*Customer, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	db := config.GetDB()
	var results []*Customer
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

/* Reconciler / worker entry points. These never push back to the mirror. */

// UpsertCustomerFromMirror writes the remote record into the local row keyed
// by id, creating it if missing.
func UpsertCustomerFromMirror(ctx context.Context, rec mirror.CustomerRecord) error {
	customer := CustomerFromMirror(rec)
	db := config.GetDB()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&customer).Error
}

// DeleteCustomerLocal hard-deletes the local row without touching the mirror.
// Used when a pulled record carries the tombstone flag.
func DeleteCustomerLocal(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&Customer{}, id).Error
}

// UpdateCustomerScore persists a recomputed credit score and pushes the
// refreshed record. Called by the nightly score worker only when the score
// changed.
func UpdateCustomerScore(ctx context.Context, customer *Customer, score int) error {
	db := config.GetDB()
	stamp := utils.NowMillis()
	if err := db.WithContext(ctx).Model(customer).
		Updates(map[string]interface{}{
			"CreditScore":  score,
			"LastModified": stamp,
		}).Error; err != nil {
		return err
	}
	customer.CreditScore = score
	customer.LastModified = stamp
	pushMirrorUpsert(customer.CompanyId, mirror.FeedCustomers, customer.ID, customer.ToMirrorRecord())
	return nil
}

// AdjustCustomerCreditBalance decrements (negative delta) or increments the
// outstanding balance, stamping and pushing like any local mutation.
func AdjustCustomerCreditBalance(ctx context.Context, customer *Customer, delta decimal.Decimal) error {
	db := config.GetDB()
	stamp := utils.NowMillis()
	newBalance := customer.CreditBalance.Add(delta)
	if err := db.WithContext(ctx).Model(customer).
		Updates(map[string]interface{}{
			"CreditBalance": newBalance,
			"LastModified":  stamp,
		}).Error; err != nil {
		return err
	}
	customer.CreditBalance = newBalance
	customer.LastModified = stamp
	pushMirrorUpsert(customer.CompanyId, mirror.FeedCustomers, customer.ID, customer.ToMirrorRecord())
	return nil
}
