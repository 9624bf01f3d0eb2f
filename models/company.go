package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// defaultPhoneRegion is the country code phone numbers are validated
// against. GST jurisdictions are Indian states, so "IN" is assumed.
const defaultPhoneRegion = "IN"

// Company is the tenant. StateCode is the seller jurisdiction consulted by
// the invoice tax split.
type Company struct {
	ID        uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	StateCode string    `gorm:"size:50;not null" json:"state_code" binding:"required"`
	TaxNumber string    `gorm:"size:50" json:"tax_number"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name      string `json:"name" binding:"required" validate:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	StateCode string `json:"state_code" binding:"required" validate:"required"`
	TaxNumber string `json:"tax_number"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CreateCompany bootstraps the tenant with its default ledger groups and
// ledgers so vouchers can be posted immediately.
func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, defaultPhoneRegion); err != nil {
			return nil, fmt.Errorf("phone: %w", err)
		}
	}

	company := Company{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		StateCode: input.StateCode,
		TaxNumber: input.TaxNumber,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "CreateCompany", Err: err}
	}
	if err := seedDefaultLedgers(tx, ctx, company.ID.String()); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "CreateCompany", Err: err}
	}
	return &company, nil
}

// GetCompanyById reads the company record, redis first.
func GetCompanyById(ctx context.Context, companyId string) (*Company, error) {
	var company *Company
	cacheKey := "Company:" + companyId
	exists, err := config.GetRedisObject(cacheKey, &company)
	if err == nil && exists && company != nil {
		return company, nil
	}

	db := config.GetDB()
	var result Company
	if err := db.WithContext(ctx).Where("id = ?", companyId).First(&result).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	_ = config.SetRedisObject(cacheKey, &result, time.Hour)
	return &result, nil
}

func GetCompany(ctx context.Context) (*Company, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return GetCompanyById(ctx, companyId)
}

func UpdateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, defaultPhoneRegion); err != nil {
			return nil, fmt.Errorf("phone: %w", err)
		}
	}

	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).Where("id = ?", companyId).First(&company).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := db.WithContext(ctx).Model(&company).Updates(map[string]interface{}{
		"Name":      input.Name,
		"Email":     input.Email,
		"Phone":     input.Phone,
		"Address":   input.Address,
		"StateCode": input.StateCode,
		"TaxNumber": input.TaxNumber,
	}).Error; err != nil {
		return nil, &utils.StorageFailure{Op: "UpdateCompany", Err: err}
	}
	_ = config.RemoveRedisKey("Company:" + companyId)
	return &company, nil
}
