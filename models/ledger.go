package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// Ledger is a named account against which voucher entries are posted.
// Its balance is derived from the entry log at query time, never cached.
type Ledger struct {
	ID             int             `gorm:"primary_key" json:"id"`
	CompanyId      string          `gorm:"uniqueIndex:idx_ledger_name;type:char(36);not null" json:"company_id"`
	Name           string          `gorm:"uniqueIndex:idx_ledger_name;size:255;not null" json:"name" binding:"required"`
	LedgerGroupId  int             `gorm:"index;not null" json:"ledger_group_id" binding:"required"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	IsDebitOpening bool            `gorm:"default:true" json:"is_debit_opening"`
	StateCode      *string         `gorm:"size:50" json:"state_code"`
	TaxNumber      *string         `gorm:"size:50" json:"tax_number"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLedger struct {
	Name           string          `json:"name" binding:"required" validate:"required"`
	LedgerGroupId  int             `json:"ledger_group_id" binding:"required" validate:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	IsDebitOpening bool            `json:"is_debit_opening"`
	StateCode      *string         `json:"state_code"`
	TaxNumber      *string         `json:"tax_number"`
}

func (input *NewLedger) validate(ctx context.Context, companyId string, id int) error {
	db := config.GetDB()
	if err := utils.ValidateUnique[Ledger](db, ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[LedgerGroup](db, ctx, companyId, input.LedgerGroupId); err != nil {
		return &utils.MissingReferenceError{Resource: "ledger group", Id: input.LedgerGroupId}
	}
	return nil
}

func CreateLedger(ctx context.Context, input *NewLedger) (*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}
	db := config.GetDB()
	return createLedgerTx(db.WithContext(ctx), companyId, input)
}

// createLedgerTx writes the ledger on the caller's handle so party creation
// can open its receivable ledger inside the same transaction scope.
func createLedgerTx(tx *gorm.DB, companyId string, input *NewLedger) (*Ledger, error) {
	ledger := Ledger{
		CompanyId:      companyId,
		Name:           input.Name,
		LedgerGroupId:  input.LedgerGroupId,
		OpeningBalance: input.OpeningBalance,
		IsDebitOpening: input.IsDebitOpening,
		StateCode:      input.StateCode,
		TaxNumber:      input.TaxNumber,
	}
	if err := tx.Create(&ledger).Error; err != nil {
		return nil, utils.ClassifyWriteError("CreateLedger", "ledger", input.Name, err)
	}
	return &ledger, nil
}

func UpdateLedger(ctx context.Context, id int, input *NewLedger) (*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	ledger, err := utils.FetchModel[Ledger](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(ledger).Updates(map[string]interface{}{
		"Name":           input.Name,
		"LedgerGroupId":  input.LedgerGroupId,
		"OpeningBalance": input.OpeningBalance,
		"IsDebitOpening": input.IsDebitOpening,
		"StateCode":      input.StateCode,
		"TaxNumber":      input.TaxNumber,
	}).Error; err != nil {
		return nil, utils.ClassifyWriteError("UpdateLedger", "ledger", input.Name, err)
	}
	return ledger, nil
}

func DeleteLedger(ctx context.Context, id int) (*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	ledger, err := utils.FetchModel[Ledger](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	entryCount, err := utils.ResourceCountWhere[VoucherEntry](db, ctx, "", "ledger_id = ?", id)
	if err != nil {
		return nil, err
	}
	partyCount, err := utils.ResourceCountWhere[Party](db, ctx, companyId, "ledger_id = ?", id)
	if err != nil {
		return nil, err
	}
	if entryCount > 0 || partyCount > 0 {
		return nil, errors.New("ledger is in use")
	}

	if err := db.WithContext(ctx).Delete(ledger).Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteLedger", Err: err}
	}
	return ledger, nil
}

func GetLedger(ctx context.Context, id int) (*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Ledger](config.GetDB(), ctx, companyId, id)
}

func GetLedgersAll(ctx context.Context) ([]*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Ledger](config.GetDB(), ctx, companyId)
}

func SearchLedgers(ctx context.Context, name string) ([]*Ledger, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.SearchModelsByName[Ledger](config.GetDB(), ctx, companyId, name)
}

// LedgerBalance derives the running balance from the entry log: signed
// opening plus posted debits minus posted credits. Positive means a debit
// balance.
//
// Recomputing at read time trades query cost for write simplicity; a
// materialized running balance per ledger is the known alternative at scale.
func LedgerBalance(ctx context.Context, ledgerId int) (decimal.Decimal, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return decimal.Zero, errors.New("company id is required")
	}
	db := config.GetDB()
	ledger, err := utils.FetchModel[Ledger](db, ctx, companyId, ledgerId)
	if err != nil {
		return decimal.Zero, err
	}

	balance := ledger.OpeningBalance
	if !ledger.IsDebitOpening {
		balance = balance.Neg()
	}

	type sums struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	var s sums
	if err := db.WithContext(ctx).Model(&VoucherEntry{}).
		Select("COALESCE(SUM(debit),0) AS debit, COALESCE(SUM(credit),0) AS credit").
		Where("ledger_id = ?", ledgerId).
		Scan(&s).Error; err != nil {
		return decimal.Zero, err
	}
	return balance.Add(s.Debit).Sub(s.Credit), nil
}
