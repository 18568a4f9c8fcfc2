package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/thukhadata/creditbook_backend/config"
	"bitbucket.org/thukhadata/creditbook_backend/mirror"
	"bitbucket.org/thukhadata/creditbook_backend/utils"
)

type AccessLevel string

const (
	AccessLevelAdmin    AccessLevel = "Admin"
	AccessLevelSales    AccessLevel = "Sales"
	AccessLevelReceipts AccessLevel = "Receipts"
)

type User struct {
	ID           int         `gorm:"primary_key" json:"id"`
	CompanyId    int         `gorm:"index;not null" json:"company_id" binding:"required"`
	Company      *Company    `gorm:"foreignKey:CompanyId" json:"company,omitempty"`
	Name         string      `gorm:"size:100;not null" json:"name" binding:"required"`
	Email        string      `gorm:"size:100;not null" json:"email" binding:"required"`
	PasswordHash string      `gorm:"size:100" json:"-"`
	AccessLevel  AccessLevel `gorm:"type:enum('Admin','Sales','Receipts');not null;default:'Sales'" json:"access_level"`
	LastModified int64       `gorm:"not null;default:0" json:"last_modified"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name        string      `json:"name" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password"`
	AccessLevel AccessLevel `json:"access_level" binding:"required"`
}

func (input *NewUser) validate(ctx context.Context, companyId int, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[User](ctx, companyId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[User](ctx, companyId, "email", input.Email, id); err != nil {
		return err
	}
	if !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	switch input.AccessLevel {
	case AccessLevelAdmin, AccessLevelSales, AccessLevelReceipts:
	default:
		return errors.New("invalid access level")
	}
	return nil
}

func (u *User) ToMirrorRecord() mirror.UserRecord {
	return mirror.UserRecord{
		Meta: mirror.Meta{
			Id:           u.ID,
			LastModified: u.LastModified,
		},
		CompanyId:   u.CompanyId,
		Name:        u.Name,
		Email:       u.Email,
		AccessLevel: string(u.AccessLevel),
	}
}

// CountAdmins backs the at-most-one-Admin-per-company check done at the API
// boundary. Not a store constraint.
func CountAdmins(ctx context.Context, companyId int, exceptUserId int) (int64, error) {
	if exceptUserId > 0 {
		return utils.ResourceCountWhere[User](ctx, companyId, "access_level = ? AND NOT id = ?", AccessLevelAdmin, exceptUserId)
	}
	return utils.ResourceCountWhere[User](ctx, companyId, "access_level = ?", AccessLevelAdmin)
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	// user must belong to an existing company
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Company{}).Where("id = ?", companyId).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, utils.ErrorRecordNotFound
	}

	user := User{
		CompanyId:    companyId,
		Name:         input.Name,
		Email:        input.Email,
		AccessLevel:  input.AccessLevel,
		LastModified: utils.NowMillis(),
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashed)
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	pushMirrorUpsert(companyId, mirror.FeedUsers, user.ID, user.ToMirrorRecord())
	return &user, nil
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	user, err := utils.FetchModel[User](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":         input.Name,
		"Email":        input.Email,
		"AccessLevel":  input.AccessLevel,
		"LastModified": utils.NowMillis(),
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["PasswordHash"] = string(hashed)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	user.Name = input.Name
	user.Email = input.Email
	user.AccessLevel = input.AccessLevel
	user.LastModified = updates["LastModified"].(int64)

	pushMirrorUpsert(companyId, mirror.FeedUsers, user.ID, user.ToMirrorRecord())
	return user, nil
}

func DeleteUser(ctx context.Context, id int) (*User, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}

	user, err := utils.FetchModel[User](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(user).Error; err != nil {
		return nil, err
	}

	pushMirrorDelete(companyId, mirror.FeedUsers, user.ID)
	return user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}
	return utils.FetchModel[User](ctx, companyId, id)
}

func GetAllUsers(ctx context.Context) ([]*User, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == 0 {
		return nil, errorCompanyRequired
	}
	return utils.FetchAllModels[User](ctx, companyId)
}
