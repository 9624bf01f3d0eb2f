package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/utils"
)

// This file is the invoice/transaction synchronizer: the single writer of the
// derived state an invoice owns — its Transaction rows, their line items and
// the product stock totals they moved. Create and update must produce
// identical derived state for identical input, so update is implemented as
// revert-then-apply-as-if-create inside one transaction scope.

// InvoiceTotals are the running sums over processed line items.
type InvoiceTotals struct {
	AmountBeforeTax decimal.Decimal
	CgstTotal       decimal.Decimal
	SgstTotal       decimal.Decimal
	IgstTotal       decimal.Decimal
	FinalTotal      decimal.Decimal
}

// ComputeInvoiceLineItems derives the persisted line items and totals from
// raw request lines. Pure: no store access.
//
// Quantity is signed (returns negative), taxable value is signed quantity
// times unit price minus discount, and the tax split runs for tax invoices
// always and for returns only when a non-zero rate was supplied. The final
// total is sum of taxable values plus tax components minus the header-level
// returns adjustment.
func ComputeInvoiceLineItems(raw []models.NewInvoiceLineItem, isReturn bool, sellerState string, buyerState string, cgstRate decimal.Decimal, sgstRate decimal.Decimal, igstRate decimal.Decimal, isTaxInvoice bool, returnsAdjustment decimal.Decimal) ([]models.InvoiceLineItem, InvoiceTotals) {

	totals := InvoiceTotals{
		AmountBeforeTax: decimal.Zero,
		CgstTotal:       decimal.Zero,
		SgstTotal:       decimal.Zero,
		IgstTotal:       decimal.Zero,
	}
	items := make([]models.InvoiceLineItem, 0, len(raw))
	for _, line := range raw {
		signedQty := line.Quantity.Abs()
		if isReturn {
			signedQty = signedQty.Neg()
		}
		taxableValue := signedQty.Mul(line.UnitPrice).Sub(line.Discount)

		split := utils.CalculateTaxSplit(taxableValue, isTaxInvoice, sellerState, buyerState, cgstRate, sgstRate, igstRate)

		item := models.InvoiceLineItem{
			ProductId:    line.ProductId,
			Description:  line.Description,
			Quantity:     signedQty,
			UnitPrice:    line.UnitPrice,
			Discount:     line.Discount,
			TaxableValue: taxableValue,
			CgstRate:     cgstRate,
			CgstAmount:   split.Cgst,
			SgstRate:     sgstRate,
			SgstAmount:   split.Sgst,
			IgstRate:     igstRate,
			IgstAmount:   split.Igst,
			LineTotal:    taxableValue.Add(split.Total()),
		}
		items = append(items, item)

		totals.AmountBeforeTax = totals.AmountBeforeTax.Add(taxableValue)
		totals.CgstTotal = totals.CgstTotal.Add(split.Cgst)
		totals.SgstTotal = totals.SgstTotal.Add(split.Sgst)
		totals.IgstTotal = totals.IgstTotal.Add(split.Igst)
	}

	totals.FinalTotal = totals.AmountBeforeTax.
		Add(totals.CgstTotal).Add(totals.SgstTotal).Add(totals.IgstTotal).
		Sub(returnsAdjustment)
	return items, totals
}

// applyInvoiceEffects writes the derived state for an already-persisted
// invoice on the caller's transaction handle: the financial transaction, the
// per-product stock deltas with their reversal log, and the optional payment
// transaction. Every failure aborts the whole scope.
func applyInvoiceEffects(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, invoice *models.Invoice, payment decimal.Decimal, paymentMethod *models.PaymentMethod) error {

	isReturn := invoice.InvoiceType.IsReturn()

	hasProductLines := false
	for _, item := range invoice.LineItems {
		if item.ProductId != nil && *item.ProductId > 0 {
			hasProductLines = true
			break
		}
	}

	if !invoice.TotalAmount.IsZero() || hasProductLines {
		category := models.TransactionCategorySaleOnCredit
		description := "Invoice #" + invoice.InvoiceNumber
		if isReturn {
			category = models.TransactionCategoryCreditNote
			description = "Credit Note #" + invoice.InvoiceNumber
		}
		customerId := invoice.CustomerId
		transaction := models.Transaction{
			CompanyId:   invoice.CompanyId,
			CustomerId:  &customerId,
			Amount:      invoice.TotalAmount,
			Description: description,
			Category:    category,
			Date:        invoice.InvoiceDate,
			InvoiceId:   &invoice.ID,
		}
		if err := tx.WithContext(ctx).Create(&transaction).Error; err != nil {
			config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "CreateTransaction", transaction, err)
			return &utils.StorageFailure{Op: "applyInvoiceEffects", Err: err}
		}

		for _, item := range invoice.LineItems {
			if item.ProductId == nil || *item.ProductId <= 0 {
				continue
			}
			// A sale line (signed qty +5) removes 5 units; a return line
			// (signed qty -5) adds 5 back.
			stockDelta := item.Quantity.Neg()
			currentStock, err := models.AdjustProductStock(tx, ctx, invoice.CompanyId, *item.ProductId, stockDelta)
			if err != nil {
				config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "AdjustProductStock", item, err)
				return err
			}

			lineItem := models.TransactionLineItem{
				TransactionId: transaction.ID,
				ProductId:     item.ProductId,
				Quantity:      stockDelta,
				UnitSalePrice: item.UnitPrice,
			}
			if err := tx.WithContext(ctx).Create(&lineItem).Error; err != nil {
				config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "CreateTransactionLineItem", lineItem, err)
				return &utils.StorageFailure{Op: "applyInvoiceEffects", Err: err}
			}

			if stockDelta.IsNegative() {
				low, lerr := models.IsBelowLowStockThreshold(tx, ctx, invoice.CompanyId, *item.ProductId, currentStock)
				if lerr != nil {
					config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "LowStockCheck", item.ProductId, lerr)
				} else if low {
					// Delivery is best-effort; the sale never waits on it.
					if nerr := lowStockNotifier.NotifyLowStock(ctx, invoice.CompanyId, *item.ProductId, currentStock); nerr != nil {
						config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "NotifyLowStock", item.ProductId, nerr)
					}
				}
			}
		}
	}

	if !payment.IsZero() && paymentMethod != nil {
		category, err := paymentCategory(payment, *paymentMethod)
		if err != nil {
			return err
		}
		customerId := invoice.CustomerId
		paymentTransaction := models.Transaction{
			CompanyId:   invoice.CompanyId,
			CustomerId:  &customerId,
			Amount:      payment.Neg(),
			Description: fmt.Sprintf("%s against #%s", category, invoice.InvoiceNumber),
			Category:    category,
			Date:        invoice.InvoiceDate,
			InvoiceId:   &invoice.ID,
		}
		if err := tx.WithContext(ctx).Create(&paymentTransaction).Error; err != nil {
			config.LogError(logger, "invoiceSync.go", "applyInvoiceEffects", "CreatePaymentTransaction", paymentTransaction, err)
			return &utils.StorageFailure{Op: "applyInvoiceEffects", Err: err}
		}
	}

	return nil
}

// paymentCategory distinguishes cash vs bank and receipt vs refund by the
// sign of the payment amount.
func paymentCategory(payment decimal.Decimal, method models.PaymentMethod) (models.TransactionCategory, error) {
	switch method {
	case models.PaymentMethodCash:
		if payment.IsNegative() {
			return models.TransactionCategoryRefundCash, nil
		}
		return models.TransactionCategoryPaymentCash, nil
	case models.PaymentMethodBank:
		if payment.IsNegative() {
			return models.TransactionCategoryRefundBank, nil
		}
		return models.TransactionCategoryPaymentBank, nil
	}
	return "", errors.New("invalid payment method")
}

// revertInvoiceEffects undoes every derived effect back-referencing the
// invoice using the stored deltas — not a recomputation from current invoice
// state, which is what keeps reversal exact even after the line items
// changed.
func revertInvoiceEffects(tx *gorm.DB, ctx context.Context, logger *logrus.Logger, companyId string, invoiceId int) error {
	transactions, err := models.FetchInvoiceTransactions(tx, ctx, companyId, invoiceId)
	if err != nil {
		config.LogError(logger, "invoiceSync.go", "revertInvoiceEffects", "FetchInvoiceTransactions", invoiceId, err)
		return &utils.StorageFailure{Op: "revertInvoiceEffects", Err: err}
	}

	for _, transaction := range transactions {
		for _, lineItem := range transaction.LineItems {
			if lineItem.ProductId == nil || *lineItem.ProductId <= 0 {
				continue
			}
			if _, err := models.AdjustProductStock(tx, ctx, companyId, *lineItem.ProductId, lineItem.Quantity.Neg()); err != nil {
				config.LogError(logger, "invoiceSync.go", "revertInvoiceEffects", "AdjustProductStock", lineItem, err)
				return err
			}
		}
		if err := tx.WithContext(ctx).Where("transaction_id = ?", transaction.ID).
			Delete(&models.TransactionLineItem{}).Error; err != nil {
			config.LogError(logger, "invoiceSync.go", "revertInvoiceEffects", "DeleteTransactionLineItems", transaction.ID, err)
			return &utils.StorageFailure{Op: "revertInvoiceEffects", Err: err}
		}
		if err := tx.WithContext(ctx).Delete(transaction).Error; err != nil {
			config.LogError(logger, "invoiceSync.go", "revertInvoiceEffects", "DeleteTransaction", transaction.ID, err)
			return &utils.StorageFailure{Op: "revertInvoiceEffects", Err: err}
		}
	}
	return nil
}

// invoiceNumberPrefix is the issuing pattern per document type, e.g.
// CN-202501- for a credit note dated January 2025.
func invoiceNumberPrefix(invoiceType models.InvoiceType, invoice *models.NewInvoice) string {
	if invoiceType.IsReturn() {
		return "CN-" + invoice.InvoiceDate.Format("200601") + "-"
	}
	return "INV-" + invoice.InvoiceDate.Format("200601") + "-"
}

func invoiceStatus(paid decimal.Decimal, total decimal.Decimal) models.InvoiceStatus {
	if paid.IsZero() {
		return models.InvoiceStatusUnpaid
	}
	if paid.Abs().GreaterThanOrEqual(total.Abs()) {
		return models.InvoiceStatusPaid
	}
	return models.InvoiceStatusPartiallyPaid
}

// buyerJurisdiction resolves the buyer side of the tax split: consignee
// override first, then the party record.
func buyerJurisdiction(ctx context.Context, companyId string, input *models.NewInvoice) (string, error) {
	if input.ConsigneeState != "" {
		return input.ConsigneeState, nil
	}
	customer, err := utils.FetchModel[models.Party](config.GetDB(), ctx, companyId, input.CustomerId)
	if err != nil {
		return "", &utils.MissingReferenceError{Resource: "customer", Id: input.CustomerId}
	}
	return customer.StateCode, nil
}

// CreateInvoiceWithEffects persists a new invoice along with all of its
// derived transaction and stock effects in one transaction scope.
func CreateInvoiceWithEffects(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	logger := config.GetLogger()

	if err := input.Validate(ctx, companyId, 0); err != nil {
		return nil, err
	}
	company, err := models.GetCompanyById(ctx, companyId)
	if err != nil {
		return nil, err
	}
	buyerState, err := buyerJurisdiction(ctx, companyId, input)
	if err != nil {
		return nil, err
	}

	isReturn := input.InvoiceType.IsReturn()
	lineItems, totals := ComputeInvoiceLineItems(
		input.LineItems, isReturn, company.StateCode, buyerState,
		input.CgstRate, input.SgstRate, input.IgstRate,
		input.InvoiceType == models.InvoiceTypeTaxInvoice, input.ReturnsAdjustment)

	db := config.GetDB()
	tx := db.Begin()

	invoiceNumber := input.InvoiceNumber
	if invoiceNumber == "" {
		prefix := invoiceNumberPrefix(input.InvoiceType, input)
		latest, lerr := models.LatestInvoiceNumber(tx, ctx, companyId, prefix)
		if lerr != nil {
			tx.Rollback()
			return nil, &utils.StorageFailure{Op: "CreateInvoiceWithEffects", Err: lerr}
		}
		invoiceNumber, err = models.NextSequencedNumber(tx, ctx, companyId, prefix, latest)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	invoice := models.Invoice{
		CompanyId:         companyId,
		CustomerId:        input.CustomerId,
		InvoiceNumber:     invoiceNumber,
		InvoiceType:       input.InvoiceType,
		InvoiceDate:       input.InvoiceDate,
		DueDate:           input.DueDate,
		AmountBeforeTax:   totals.AmountBeforeTax,
		CgstTotal:         totals.CgstTotal,
		SgstTotal:         totals.SgstTotal,
		IgstTotal:         totals.IgstTotal,
		TotalAmount:       totals.FinalTotal,
		ReturnsAdjustment: input.ReturnsAdjustment,
		PaidAmount:        input.PaymentAmount,
		Status:            invoiceStatus(input.PaymentAmount, totals.FinalTotal),
		ConsigneeName:     input.ConsigneeName,
		ConsigneeAddress:  input.ConsigneeAddress,
		ConsigneeState:    input.ConsigneeState,
		OriginalInvoiceId: input.OriginalInvoiceId,
		LineItems:         lineItems,
	}
	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, utils.ClassifyWriteError("CreateInvoiceWithEffects", "invoice", invoiceNumber, err)
	}

	if err := applyInvoiceEffects(tx, ctx, logger, &invoice, input.PaymentAmount, input.PaymentMethod); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "CreateInvoiceWithEffects", Err: err}
	}
	return &invoice, nil
}

// UpdateInvoiceWithEffects rewrites an invoice as revert-then-apply: prior
// derived effects are undone from their stored deltas, then the new request
// body is applied exactly as a create would. Running it with an unchanged
// body therefore converges: same totals, same stock, one transaction per
// category.
//
// Two concurrent edits of the same invoice are not detected; the later
// committer wins.
func UpdateInvoiceWithEffects(ctx context.Context, id int, input *models.NewInvoice) (*models.Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	logger := config.GetLogger()

	if err := input.Validate(ctx, companyId, id); err != nil {
		return nil, err
	}
	company, err := models.GetCompanyById(ctx, companyId)
	if err != nil {
		return nil, err
	}
	buyerState, err := buyerJurisdiction(ctx, companyId, input)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	existing, err := utils.FetchModel[models.Invoice](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	isReturn := input.InvoiceType.IsReturn()
	lineItems, totals := ComputeInvoiceLineItems(
		input.LineItems, isReturn, company.StateCode, buyerState,
		input.CgstRate, input.SgstRate, input.IgstRate,
		input.InvoiceType == models.InvoiceTypeTaxInvoice, input.ReturnsAdjustment)

	invoiceNumber := input.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = existing.InvoiceNumber
	}
	paidAmount := existing.PaidAmount.Add(input.PaymentAmount)

	tx := db.Begin()
	if err := revertInvoiceEffects(tx, ctx, logger, companyId, id); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Where("invoice_id = ?", id).
		Delete(&models.InvoiceLineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "UpdateInvoiceWithEffects", Err: err}
	}

	if err := tx.WithContext(ctx).Model(existing).Updates(map[string]interface{}{
		"CustomerId":        input.CustomerId,
		"InvoiceNumber":     invoiceNumber,
		"InvoiceType":       input.InvoiceType,
		"InvoiceDate":       input.InvoiceDate,
		"DueDate":           input.DueDate,
		"AmountBeforeTax":   totals.AmountBeforeTax,
		"CgstTotal":         totals.CgstTotal,
		"SgstTotal":         totals.SgstTotal,
		"IgstTotal":         totals.IgstTotal,
		"TotalAmount":       totals.FinalTotal,
		"ReturnsAdjustment": input.ReturnsAdjustment,
		"PaidAmount":        paidAmount,
		"Status":            invoiceStatus(paidAmount, totals.FinalTotal),
		"ConsigneeName":     input.ConsigneeName,
		"ConsigneeAddress":  input.ConsigneeAddress,
		"ConsigneeState":    input.ConsigneeState,
		"OriginalInvoiceId": input.OriginalInvoiceId,
	}).Error; err != nil {
		tx.Rollback()
		return nil, utils.ClassifyWriteError("UpdateInvoiceWithEffects", "invoice", invoiceNumber, err)
	}

	for i := range lineItems {
		lineItems[i].InvoiceId = id
		if err := tx.WithContext(ctx).Create(&lineItems[i]).Error; err != nil {
			tx.Rollback()
			return nil, &utils.StorageFailure{Op: "UpdateInvoiceWithEffects", Err: err}
		}
	}
	existing.LineItems = lineItems

	if err := applyInvoiceEffects(tx, ctx, logger, existing, input.PaymentAmount, input.PaymentMethod); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "UpdateInvoiceWithEffects", Err: err}
	}
	return existing, nil
}

// DeleteInvoiceWithEffects reverts derived effects from their stored deltas,
// then removes the invoice and its line items, one transaction scope. Stock
// returns exactly to its pre-invoice value no matter how often the invoice
// was edited before.
func DeleteInvoiceWithEffects(ctx context.Context, id int) (*models.Invoice, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	logger := config.GetLogger()

	db := config.GetDB()
	invoice, err := utils.FetchModel[models.Invoice](db, ctx, companyId, id, "LineItems")
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := revertInvoiceEffects(tx, ctx, logger, companyId, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Where("invoice_id = ?", id).
		Delete(&models.InvoiceLineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteInvoiceWithEffects", Err: err}
	}
	if err := tx.WithContext(ctx).Delete(invoice).Error; err != nil {
		tx.Rollback()
		return nil, &utils.StorageFailure{Op: "DeleteInvoiceWithEffects", Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteInvoiceWithEffects", Err: err}
	}
	return invoice, nil
}
