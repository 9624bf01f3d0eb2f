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

// Transaction is a derived financial record. Rows with a non-nil InvoiceId
// are owned entirely by the invoice synchronizer: they are deleted and
// regenerated on every invoice edit, never hand-edited. Amount is signed so
// that positive increases what is owed to the business.
type Transaction struct {
	ID          int                   `gorm:"primary_key" json:"id"`
	CompanyId   string                `gorm:"index;type:char(36);not null" json:"company_id"`
	CustomerId  *int                  `gorm:"index" json:"customer_id"`
	Amount      decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description string                `gorm:"size:255" json:"description"`
	Category    TransactionCategory   `gorm:"size:100;not null" json:"category"`
	Date        time.Time             `gorm:"not null" json:"date"`
	InvoiceId   *int                  `gorm:"index" json:"invoice_id"`
	LineItems   []TransactionLineItem `gorm:"foreignKey:TransactionId;constraint:OnDelete:CASCADE" json:"line_items"`
	CreatedAt   time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// TransactionLineItem records the exact signed stock delta an invoice line
// applied to a product (negative = outward), so reversal can undo it from the
// stored value rather than recomputing from current invoice state.
type TransactionLineItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TransactionId int             `gorm:"index;not null" json:"transaction_id"`
	ProductId     *int            `gorm:"index" json:"product_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitSalePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_sale_price"`
}

// FetchInvoiceTransactions loads all derived transactions back-referencing an
// invoice, with their line items, on the caller's transaction handle.
func FetchInvoiceTransactions(tx *gorm.DB, ctx context.Context, companyId string, invoiceId int) ([]*Transaction, error) {
	var results []*Transaction
	if err := tx.WithContext(ctx).Preload("LineItems").
		Where("company_id = ? AND invoice_id = ?", companyId, invoiceId).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Transaction](config.GetDB(), ctx, companyId, id, "LineItems")
}

func GetTransactionsAll(ctx context.Context, customerId *int) ([]*Transaction, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("LineItems").Where("company_id = ?", companyId)
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	var results []*Transaction
	if err := dbCtx.Order("date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
