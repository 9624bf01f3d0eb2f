package models

import (
	"context"

	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
)

// MigrateTable creates/updates the schema. Foreign-key cascade deletes from
// Voucher to its entries, Invoice to its line items and Transaction to its
// line items come from the association constraint tags.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Company{},
		&User{},
		&LedgerGroup{},
		&Ledger{},
		&Party{},
		&Warehouse{},
		&Product{},
		&Voucher{},
		&VoucherEntry{},
		&VoucherInventoryEntry{},
		&Invoice{},
		&InvoiceLineItem{},
		&Transaction{},
		&TransactionLineItem{},
		&DocumentSequence{},
	)
}

type defaultLedgerGroup struct {
	name     string
	nature   LedgerNature
	children []string
}

var defaultLedgerGroups = []defaultLedgerGroup{
	{name: "Current Assets", nature: LedgerNatureAsset, children: []string{sundryDebtorsGroup, "Cash-in-Hand", "Bank Accounts"}},
	{name: "Current Liabilities", nature: LedgerNatureLiability, children: []string{"Sundry Creditors", "Duties & Taxes"}},
	{name: "Sales Accounts", nature: LedgerNatureIncome, children: nil},
	{name: "Purchase Accounts", nature: LedgerNatureExpense, children: nil},
	{name: "Indirect Expenses", nature: LedgerNatureExpense, children: nil},
}

var defaultLedgers = map[string]string{
	"Cash":      "Cash-in-Hand",
	"Sales":     "Sales Accounts",
	"Purchases": "Purchase Accounts",
}

// seedDefaultLedgers opens the standard group tree and ledgers for a new
// company on the caller's transaction handle.
func seedDefaultLedgers(tx *gorm.DB, ctx context.Context, companyId string) error {
	for _, g := range defaultLedgerGroups {
		group := LedgerGroup{
			CompanyId: companyId,
			Name:      g.name,
			Nature:    g.nature,
		}
		if err := tx.WithContext(ctx).Create(&group).Error; err != nil {
			return err
		}
		for _, childName := range g.children {
			parentId := group.ID
			child := LedgerGroup{
				CompanyId: companyId,
				Name:      childName,
				ParentId:  &parentId,
				Nature:    g.nature,
			}
			if err := tx.WithContext(ctx).Create(&child).Error; err != nil {
				return err
			}
		}
	}

	for ledgerName, groupName := range defaultLedgers {
		var group LedgerGroup
		if err := tx.WithContext(ctx).
			Where("company_id = ? AND name = ?", companyId, groupName).
			First(&group).Error; err != nil {
			return err
		}
		ledger := Ledger{
			CompanyId:      companyId,
			Name:           ledgerName,
			LedgerGroupId:  group.ID,
			IsDebitOpening: true,
		}
		if err := tx.WithContext(ctx).Create(&ledger).Error; err != nil {
			return err
		}
	}
	return nil
}
