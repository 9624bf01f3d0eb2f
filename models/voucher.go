package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// BalanceEpsilon is the currency tolerance for the double-entry invariant:
// a voucher is accepted when |sum(debit) - sum(credit)| <= 0.01.
var BalanceEpsilon = decimal.NewFromFloat(0.01)

// Voucher is a manually entered double-entry document. It owns its entries
// and optional inventory movements and is created atomically: a voucher is
// never partially persisted.
type Voucher struct {
	ID               int                     `gorm:"primary_key" json:"id"`
	CompanyId        string                  `gorm:"uniqueIndex:idx_voucher_number;type:char(36);not null" json:"company_id"`
	VoucherNumber    string                  `gorm:"uniqueIndex:idx_voucher_number;size:100;not null" json:"voucher_number" binding:"required"`
	VoucherType      VoucherType             `gorm:"uniqueIndex:idx_voucher_number;size:20;not null" json:"voucher_type" binding:"required"`
	VoucherDate      time.Time               `gorm:"not null" json:"voucher_date" binding:"required"`
	Narration        string                  `gorm:"type:text" json:"narration"`
	TotalAmount      decimal.Decimal         `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	CreatedBy        int                     `gorm:"index" json:"created_by"`
	Entries          []VoucherEntry          `gorm:"foreignKey:VoucherId;constraint:OnDelete:CASCADE" json:"entries"`
	InventoryEntries []VoucherInventoryEntry `gorm:"foreignKey:VoucherId;constraint:OnDelete:CASCADE" json:"inventory_entries"`
	CreatedAt        time.Time               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time               `gorm:"autoUpdateTime" json:"updated_at"`
}

// VoucherEntry posts against one ledger. Exactly one of debit/credit is
// non-zero per row by convention; across the voucher the sums must balance.
type VoucherEntry struct {
	ID        int             `gorm:"primary_key" json:"id"`
	VoucherId int             `gorm:"index;not null" json:"voucher_id"`
	LedgerId  int             `gorm:"index;not null" json:"ledger_id" binding:"required"`
	Narration string          `gorm:"size:255" json:"narration"`
	Debit     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
}

// VoucherInventoryEntry links a stock movement to a voucher. Quantity sign
// encodes direction: negative for outward (sales), positive for inward.
type VoucherInventoryEntry struct {
	ID          int             `gorm:"primary_key" json:"id"`
	VoucherId   int             `gorm:"index;not null" json:"voucher_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id" binding:"required"`
	WarehouseId int             `gorm:"index;not null" json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
}

type NewVoucher struct {
	VoucherNumber    string                     `json:"voucher_number" binding:"required" validate:"required"`
	VoucherType      VoucherType                `json:"voucher_type" binding:"required" validate:"required"`
	VoucherDate      time.Time                  `json:"voucher_date" binding:"required" validate:"required"`
	Narration        string                     `json:"narration"`
	Entries          []NewVoucherEntry          `json:"entries" binding:"required"`
	InventoryEntries []NewVoucherInventoryEntry `json:"inventory_entries"`
}

type NewVoucherEntry struct {
	LedgerId  int             `json:"ledger_id" binding:"required" validate:"required"`
	Narration string          `json:"narration"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type NewVoucherInventoryEntry struct {
	ProductId   int             `json:"product_id" binding:"required" validate:"required"`
	WarehouseId int             `json:"warehouse_id" binding:"required" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// CheckVoucherBalance enforces the double-entry invariant on the raw entries.
// Pure: no store access.
func CheckVoucherBalance(entries []NewVoucherEntry) (decimal.Decimal, decimal.Decimal, error) {
	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	for _, e := range entries {
		if e.Debit.IsZero() && e.Credit.IsZero() {
			return debitTotal, creditTotal, errors.New("either debit or credit must have value")
		}
		debitTotal = debitTotal.Add(e.Debit)
		creditTotal = creditTotal.Add(e.Credit)
	}
	if debitTotal.Sub(creditTotal).Abs().GreaterThan(BalanceEpsilon) {
		return debitTotal, creditTotal, &utils.ImbalancedVoucherError{
			DebitTotal:  debitTotal,
			CreditTotal: creditTotal,
		}
	}
	return debitTotal, creditTotal, nil
}

// SignedInventoryQuantity applies the movement sign convention: outward
// voucher types store negative quantities, inward stay positive.
func SignedInventoryQuantity(voucherType VoucherType, quantity decimal.Decimal) decimal.Decimal {
	if voucherType.IsOutward() {
		return quantity.Abs().Neg()
	}
	return quantity.Abs()
}

func (input *NewVoucher) validate(ctx context.Context, companyId string) error {
	if !input.VoucherType.Valid() {
		return errors.New("invalid voucher type")
	}
	if len(input.Entries) < 2 {
		return errors.New("a voucher needs at least two entries")
	}
	if _, _, err := CheckVoucherBalance(input.Entries); err != nil {
		return err
	}

	db := config.GetDB()
	for _, e := range input.Entries {
		if err := utils.ValidateResourceId[Ledger](db, ctx, companyId, e.LedgerId); err != nil {
			return &utils.MissingReferenceError{Resource: "ledger", Id: e.LedgerId}
		}
	}
	for _, ie := range input.InventoryEntries {
		if err := utils.ValidateResourceId[Product](db, ctx, companyId, ie.ProductId); err != nil {
			return &utils.MissingReferenceError{Resource: "product", Id: ie.ProductId}
		}
		if err := utils.ValidateResourceId[Warehouse](db, ctx, companyId, ie.WarehouseId); err != nil {
			return &utils.MissingReferenceError{Resource: "warehouse", Id: ie.WarehouseId}
		}
	}
	return nil
}

// CreateVoucher validates and persists a balanced voucher with its entries
// and inventory movements in one transaction scope. A rejected voucher writes
// nothing. Ledger balances are not cached here: they are derived from the
// entry log at query time.
func CreateVoucher(ctx context.Context, input *NewVoucher) (*Voucher, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	debitTotal, _, err := CheckVoucherBalance(input.Entries)
	if err != nil {
		return nil, err
	}

	entries := make([]VoucherEntry, 0, len(input.Entries))
	for _, e := range input.Entries {
		entries = append(entries, VoucherEntry{
			LedgerId:  e.LedgerId,
			Narration: e.Narration,
			Debit:     e.Debit,
			Credit:    e.Credit,
		})
	}
	inventoryEntries := make([]VoucherInventoryEntry, 0, len(input.InventoryEntries))
	for _, ie := range input.InventoryEntries {
		inventoryEntries = append(inventoryEntries, VoucherInventoryEntry{
			ProductId:   ie.ProductId,
			WarehouseId: ie.WarehouseId,
			Quantity:    SignedInventoryQuantity(input.VoucherType, ie.Quantity),
			Rate:        ie.Rate,
			Amount:      ie.Rate.Mul(ie.Quantity.Abs()),
		})
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	voucher := Voucher{
		CompanyId:        companyId,
		VoucherNumber:    input.VoucherNumber,
		VoucherType:      input.VoucherType,
		VoucherDate:      input.VoucherDate,
		Narration:        input.Narration,
		TotalAmount:      debitTotal,
		CreatedBy:        userId,
		Entries:          entries,
		InventoryEntries: inventoryEntries,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&voucher).Error; err != nil {
		tx.Rollback()
		return nil, utils.ClassifyWriteError("CreateVoucher", "voucher", input.VoucherNumber, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "CreateVoucher", Err: err}
	}
	return &voucher, nil
}

// DeleteVoucher removes the voucher with its entries. Because balances are
// derived at read time there is no cached state to unwind.
func DeleteVoucher(ctx context.Context, id int) (*Voucher, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	voucher, err := utils.FetchModel[Voucher](db, ctx, companyId, id, "Entries", "InventoryEntries")
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("voucher_id = ?", id).Delete(&VoucherEntry{}).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteVoucher", Err: err}
	}
	if err := tx.WithContext(ctx).Where("voucher_id = ?", id).Delete(&VoucherInventoryEntry{}).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteVoucher", Err: err}
	}
	if err := tx.WithContext(ctx).Delete(voucher).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteVoucher", Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteVoucher", Err: err}
	}
	return voucher, nil
}

func GetVoucher(ctx context.Context, id int) (*Voucher, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Voucher](config.GetDB(), ctx, companyId, id, "Entries", "InventoryEntries")
}

func GetVouchersAll(ctx context.Context, voucherType *VoucherType) ([]*Voucher, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Entries").Preload("InventoryEntries").
		Where("company_id = ?", companyId)
	if voucherType != nil && *voucherType != "" {
		dbCtx = dbCtx.Where("voucher_type = ?", *voucherType)
	}
	var results []*Voucher
	if err := dbCtx.Order("voucher_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
