package models

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/saralerp/books_backend/utils"
)

// AdjustProductStock applies a signed quantity delta to a product's running
// stock total as a single atomic increment at the storage layer. No
// read-modify-write happens in the application: concurrent invoices against
// the same product must not lose updates.
//
// Returns the stock level after the adjustment so the caller can evaluate
// low-stock thresholds.
func AdjustProductStock(tx *gorm.DB, ctx context.Context, companyId string, productId int, delta decimal.Decimal) (decimal.Decimal, error) {
	result := tx.WithContext(ctx).Exec(
		"UPDATE products SET current_stock = current_stock + ? WHERE company_id = ? AND id = ?",
		delta, companyId, productId)
	if result.Error != nil {
		return decimal.Zero, &utils.StorageFailure{Op: "AdjustProductStock", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, &utils.MissingReferenceError{Resource: "product", Id: productId}
	}

	// Read back inside the same scope so the caller sees its own uncommitted
	// adjustment.
	var currentStock decimal.Decimal
	if err := tx.WithContext(ctx).Model(&Product{}).
		Where("company_id = ? AND id = ?", companyId, productId).
		Select("current_stock").Scan(&currentStock).Error; err != nil {
		return decimal.Zero, &utils.StorageFailure{Op: "AdjustProductStock", Err: err}
	}
	return currentStock, nil
}

// IsBelowLowStockThreshold reports whether the product sits at or under its
// configured threshold. A zero threshold disables the check.
func IsBelowLowStockThreshold(tx *gorm.DB, ctx context.Context, companyId string, productId int, currentStock decimal.Decimal) (bool, error) {
	var threshold decimal.Decimal
	err := tx.WithContext(ctx).Model(&Product{}).
		Where("company_id = ? AND id = ?", companyId, productId).
		Select("low_stock_threshold").Scan(&threshold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if threshold.IsZero() {
		return false, nil
	}
	return currentStock.LessThanOrEqual(threshold), nil
}
