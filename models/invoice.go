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

// Invoice is a customer-facing sale or return document. Its financial and
// stock effects are derived, not manually posted: total_amount and the
// per-component tax totals are always recomputed from line items, and the
// transactions tagged with the invoice id are regenerated on every edit.
type Invoice struct {
	ID                int               `gorm:"primary_key" json:"id"`
	CompanyId         string            `gorm:"uniqueIndex:idx_invoice_number;type:char(36);not null" json:"company_id"`
	CustomerId        int               `gorm:"index;not null" json:"customer_id" binding:"required"`
	InvoiceNumber     string            `gorm:"uniqueIndex:idx_invoice_number;size:100;not null" json:"invoice_number" binding:"required"`
	InvoiceType       InvoiceType       `gorm:"size:20;not null" json:"invoice_type" binding:"required"`
	InvoiceDate       time.Time         `gorm:"not null" json:"invoice_date" binding:"required"`
	DueDate           *time.Time        `json:"due_date"`
	AmountBeforeTax   decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount_before_tax"`
	CgstTotal         decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"cgst_total"`
	SgstTotal         decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"sgst_total"`
	IgstTotal         decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"igst_total"`
	TotalAmount       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	ReturnsAdjustment decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"returns_adjustment"`
	PaidAmount        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	Status            InvoiceStatus     `gorm:"size:20;default:'Unpaid'" json:"status"`
	ConsigneeName     string            `gorm:"size:255" json:"consignee_name"`
	ConsigneeAddress  string            `gorm:"type:text" json:"consignee_address"`
	ConsigneeState    string            `gorm:"size:50" json:"consignee_state"`
	OriginalInvoiceId *int              `gorm:"index" json:"original_invoice_id"`
	LineItems         []InvoiceLineItem `gorm:"foreignKey:InvoiceId;constraint:OnDelete:CASCADE" json:"line_items"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceLineItem holds the computed tax decomposition of one line. Quantity
// is signed: negative on returns. Exactly one of {cgst/sgst pair, igst} is
// non-zero, and line_total = taxable_value + cgst + sgst + igst.
type InvoiceLineItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	InvoiceId    int             `gorm:"index;not null" json:"invoice_id"`
	ProductId    *int            `gorm:"index" json:"product_id"`
	Description  string          `gorm:"size:255" json:"description"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Discount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	TaxableValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	CgstRate     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"cgst_rate"`
	CgstAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstRate     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"sgst_rate"`
	SgstAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	IgstRate     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"igst_rate"`
	IgstAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

// NewInvoice is the request body for create and update. Line items carry raw
// values only; every derived field is computed by the synchronizer.
type NewInvoice struct {
	CustomerId        int                  `json:"customer_id" binding:"required" validate:"required"`
	InvoiceNumber     string               `json:"invoice_number"`
	InvoiceType       InvoiceType          `json:"invoice_type" binding:"required" validate:"required"`
	InvoiceDate       time.Time            `json:"invoice_date" binding:"required" validate:"required"`
	DueDate           *time.Time           `json:"due_date"`
	CgstRate          decimal.Decimal      `json:"cgst_rate"`
	SgstRate          decimal.Decimal      `json:"sgst_rate"`
	IgstRate          decimal.Decimal      `json:"igst_rate"`
	ReturnsAdjustment decimal.Decimal      `json:"returns_adjustment"`
	PaymentAmount     decimal.Decimal      `json:"payment_amount"`
	PaymentMethod     *PaymentMethod       `json:"payment_method"`
	ConsigneeName     string               `json:"consignee_name"`
	ConsigneeAddress  string               `json:"consignee_address"`
	ConsigneeState    string               `json:"consignee_state"`
	OriginalInvoiceId *int                 `json:"original_invoice_id"`
	LineItems         []NewInvoiceLineItem `json:"line_items" binding:"required"`
}

type NewInvoiceLineItem struct {
	ProductId   *int            `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// Validate checks references and shape for both create and update
// (id = 0 for create).
func (input *NewInvoice) Validate(ctx context.Context, companyId string, id int) error {
	if !input.InvoiceType.Valid() {
		return errors.New("invalid invoice type")
	}
	if len(input.LineItems) == 0 {
		return errors.New("an invoice needs at least one line item")
	}

	db := config.GetDB()
	if err := utils.ValidateResourceId[Party](db, ctx, companyId, input.CustomerId); err != nil {
		return &utils.MissingReferenceError{Resource: "customer", Id: input.CustomerId}
	}
	for _, item := range input.LineItems {
		if item.ProductId != nil && *item.ProductId > 0 {
			if err := utils.ValidateResourceId[Product](db, ctx, companyId, *item.ProductId); err != nil {
				return &utils.MissingReferenceError{Resource: "product", Id: *item.ProductId}
			}
		}
	}
	if input.OriginalInvoiceId != nil && *input.OriginalInvoiceId > 0 {
		if err := utils.ValidateResourceId[Invoice](db, ctx, companyId, *input.OriginalInvoiceId); err != nil {
			return &utils.MissingReferenceError{Resource: "invoice", Id: *input.OriginalInvoiceId}
		}
	}
	if input.InvoiceNumber != "" {
		if err := utils.ValidateUnique[Invoice](db, ctx, companyId, "invoice_number", input.InvoiceNumber, id); err != nil {
			return err
		}
	}
	return nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Invoice](config.GetDB(), ctx, companyId, id, "LineItems")
}

func GetInvoicesAll(ctx context.Context, invoiceType *InvoiceType, customerId *int) ([]*Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("LineItems").Where("company_id = ?", companyId)
	if invoiceType != nil && *invoiceType != "" {
		dbCtx = dbCtx.Where("invoice_type = ?", *invoiceType)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	var results []*Invoice
	if err := dbCtx.Order("invoice_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// LatestInvoiceNumber returns the most recently created invoice number
// matching the prefix for the company — latest by id, i.e. creation order,
// not lexical order. Empty when none exists.
func LatestInvoiceNumber(tx *gorm.DB, ctx context.Context, companyId string, prefix string) (string, error) {
	var number string
	err := tx.WithContext(ctx).Model(&Invoice{}).
		Where("company_id = ? AND invoice_number LIKE ?", companyId, prefix+"%").
		Order("id DESC").Limit(1).
		Select("invoice_number").Scan(&number).Error
	if err != nil {
		return "", err
	}
	return number, nil
}
