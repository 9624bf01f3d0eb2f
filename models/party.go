package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

const sundryDebtorsGroup = "Sundry Debtors"

// Party is a customer. Each party owns a receivable ledger under
// "Sundry Debtors"; the ledger is opened with the party and renamed with it.
type Party struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"uniqueIndex:idx_party_name;type:char(36);not null" json:"company_id"`
	Name      string    `gorm:"uniqueIndex:idx_party_name;size:255;not null" json:"name" binding:"required"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Email     string    `gorm:"size:255" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	StateCode string    `gorm:"size:50" json:"state_code"`
	TaxNumber string    `gorm:"size:50" json:"tax_number"`
	LedgerId  int       `gorm:"index" json:"ledger_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewParty struct {
	Name      string `json:"name" binding:"required" validate:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	StateCode string `json:"state_code"`
	TaxNumber string `json:"tax_number"`
}

func (input *NewParty) validate(ctx context.Context, companyId string, id int) error {
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, defaultPhoneRegion); err != nil {
			return fmt.Errorf("phone: %w", err)
		}
	}
	db := config.GetDB()
	return utils.ValidateUnique[Party](db, ctx, companyId, "name", input.Name, id)
}

func CreateParty(ctx context.Context, input *NewParty) (*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	db := config.GetDB()

	var group LedgerGroup
	if err := db.WithContext(ctx).
		Where("company_id = ? AND name = ?", companyId, sundryDebtorsGroup).
		First(&group).Error; err != nil {
		return nil, errors.New("default ledger groups are missing; reseed the company")
	}

	tx := db.Begin()
	taxNumber := input.TaxNumber
	stateCode := input.StateCode
	ledger, err := createLedgerTx(tx.WithContext(ctx), companyId, &NewLedger{
		Name:           input.Name,
		LedgerGroupId:  group.ID,
		IsDebitOpening: true,
		StateCode:      &stateCode,
		TaxNumber:      &taxNumber,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	party := Party{
		CompanyId: companyId,
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		StateCode: input.StateCode,
		TaxNumber: input.TaxNumber,
		LedgerId:  ledger.ID,
	}
	if err := tx.WithContext(ctx).Create(&party).Error; err != nil {
		tx.Rollback()
		return nil, utils.ClassifyWriteError("CreateParty", "party", input.Name, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "CreateParty", Err: err}
	}
	return &party, nil
}

func UpdateParty(ctx context.Context, id int, input *NewParty) (*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	party, err := utils.FetchModel[Party](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(party).Updates(map[string]interface{}{
		"Name":      input.Name,
		"Phone":     input.Phone,
		"Email":     input.Email,
		"Address":   input.Address,
		"StateCode": input.StateCode,
		"TaxNumber": input.TaxNumber,
	}).Error; err != nil {
		tx.Rollback()
		return nil, utils.ClassifyWriteError("UpdateParty", "party", input.Name, err)
	}
	// Keep the receivable ledger in sync with the party record.
	if party.LedgerId > 0 {
		if err := tx.WithContext(ctx).Model(&Ledger{}).
			Where("company_id = ? AND id = ?", companyId, party.LedgerId).
			Updates(map[string]interface{}{
				"name":       input.Name,
				"state_code": input.StateCode,
				"tax_number": input.TaxNumber,
			}).Error; err != nil {
			tx.Rollback()
			return nil, utils.ClassifyWriteError("UpdateParty", "ledger", input.Name, err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "UpdateParty", Err: err}
	}
	return party, nil
}

func DeleteParty(ctx context.Context, id int) (*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	party, err := utils.FetchModel[Party](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	invoiceCount, err := utils.ResourceCountWhere[Invoice](db, ctx, companyId, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if invoiceCount > 0 {
		return nil, errors.New("party has invoices")
	}
	if party.LedgerId > 0 {
		entryCount, err := utils.ResourceCountWhere[VoucherEntry](db, ctx, "", "ledger_id = ?", party.LedgerId)
		if err != nil {
			return nil, err
		}
		if entryCount > 0 {
			return nil, errors.New("party ledger has postings")
		}
	}

	tx := db.Begin()
	if party.LedgerId > 0 {
		if err := tx.WithContext(ctx).
			Where("company_id = ? AND id = ?", companyId, party.LedgerId).
			Delete(&Ledger{}).Error; err != nil {
			tx.Rollback()
			return nil, &utils.StorageFailure{Op: "DeleteParty", Err: err}
		}
	}
	if err := tx.WithContext(ctx).Delete(party).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteParty", Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteParty", Err: err}
	}
	return party, nil
}

func GetParty(ctx context.Context, id int) (*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Party](config.GetDB(), ctx, companyId, id)
}

func GetPartiesAll(ctx context.Context) ([]*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Party](config.GetDB(), ctx, companyId)
}

func SearchParties(ctx context.Context, name string) ([]*Party, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.SearchModelsByName[Party](config.GetDB(), ctx, companyId, name)
}
