package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// Product carries a mutable running stock total. The invariant is
// current_stock = opening_stock + sum of signed transaction line quantities;
// it is maintained incrementally on every invoice effect and can be repaired
// with RebuildProductStock.
type Product struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CompanyId         string          `gorm:"uniqueIndex:idx_product_name;uniqueIndex:idx_product_sku;type:char(36);not null" json:"company_id"`
	Name              string          `gorm:"uniqueIndex:idx_product_name;size:255;not null" json:"name" binding:"required"`
	Sku               string          `gorm:"uniqueIndex:idx_product_sku;size:100;not null" json:"sku" binding:"required"`
	HsnCode           string          `gorm:"size:20" json:"hsn_code"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	OpeningStock      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_stock"`
	CurrentStock      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_stock"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"low_stock_threshold"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name              string          `json:"name" binding:"required" validate:"required"`
	Sku               string          `json:"sku" binding:"required" validate:"required"`
	HsnCode           string          `json:"hsn_code"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
}

func (input *NewProduct) validate(ctx context.Context, companyId string, id int) error {
	db := config.GetDB()
	if err := utils.ValidateUnique[Product](db, ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	return utils.ValidateUnique[Product](db, ctx, companyId, "sku", input.Sku, id)
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	product := Product{
		CompanyId:         companyId,
		Name:              input.Name,
		Sku:               input.Sku,
		HsnCode:           input.HsnCode,
		SalePrice:         input.SalePrice,
		OpeningStock:      input.OpeningStock,
		CurrentStock:      input.OpeningStock,
		LowStockThreshold: input.LowStockThreshold,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, utils.ClassifyWriteError("CreateProduct", "product", input.Name, err)
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	product, err := utils.FetchModel[Product](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	// current_stock is never edited directly; opening changes shift it by the
	// same delta so the running-total invariant holds.
	openingDelta := input.OpeningStock.Sub(product.OpeningStock)
	if err := db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":              input.Name,
		"Sku":               input.Sku,
		"HsnCode":           input.HsnCode,
		"SalePrice":         input.SalePrice,
		"OpeningStock":      input.OpeningStock,
		"LowStockThreshold": input.LowStockThreshold,
	}).Error; err != nil {
		return nil, utils.ClassifyWriteError("UpdateProduct", "product", input.Name, err)
	}
	if !openingDelta.IsZero() {
		if err := db.WithContext(ctx).Exec(
			"UPDATE products SET current_stock = current_stock + ? WHERE id = ?",
			openingDelta, id).Error; err != nil {
			return nil, &utils.StorageFailure{Op: "UpdateProduct", Err: err}
		}
	}
	return product, nil
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	product, err := utils.FetchModel[Product](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	lineCount, err := utils.ResourceCountWhere[TransactionLineItem](db, ctx, "", "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if lineCount > 0 {
		return nil, errors.New("product has transactions")
	}

	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteProduct", Err: err}
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Product](config.GetDB(), ctx, companyId, id)
}

func GetProductsAll(ctx context.Context) ([]*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Product](config.GetDB(), ctx, companyId)
}

func SearchProducts(ctx context.Context, name string) ([]*Product, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.SearchModelsByName[Product](config.GetDB(), ctx, companyId, name)
}

// RebuildProductStock recomputes current_stock from the transaction line-item
// log for every product of the company. Used by cmd/stock-rebuild for drift
// repair; invoice effects maintain the total incrementally.
func RebuildProductStock(ctx context.Context, companyId string) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Exec(`
		UPDATE products p
		SET p.current_stock = p.opening_stock + COALESCE((
			SELECT SUM(tli.quantity)
			FROM transaction_line_items tli
			JOIN transactions t ON t.id = tli.transaction_id
			WHERE tli.product_id = p.id AND t.company_id = p.company_id
		), 0)
		WHERE p.company_id = ?`, companyId)
	if result.Error != nil {
		return 0, &utils.StorageFailure{Op: "RebuildProductStock", Err: result.Error}
	}
	return result.RowsAffected, nil
}
