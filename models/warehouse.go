package models

import (
	"context"
	"errors"
	"time"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

type Warehouse struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"uniqueIndex:idx_warehouse_name;type:char(36);not null" json:"company_id"`
	Name      string    `gorm:"uniqueIndex:idx_warehouse_name;size:255;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewWarehouse struct {
	Name    string `json:"name" binding:"required" validate:"required"`
	Address string `json:"address"`
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	db := config.GetDB()
	if err := utils.ValidateUnique[Warehouse](db, ctx, companyId, "name", input.Name, 0); err != nil {
		return nil, err
	}

	warehouse := Warehouse{
		CompanyId: companyId,
		Name:      input.Name,
		Address:   input.Address,
	}
	if err := db.WithContext(ctx).Create(&warehouse).Error; err != nil {
		return nil, utils.ClassifyWriteError("CreateWarehouse", "warehouse", input.Name, err)
	}
	return &warehouse, nil
}

func UpdateWarehouse(ctx context.Context, id int, input *NewWarehouse) (*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	db := config.GetDB()
	if err := utils.ValidateUnique[Warehouse](db, ctx, companyId, "name", input.Name, id); err != nil {
		return nil, err
	}
	warehouse, err := utils.FetchModel[Warehouse](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(warehouse).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Address": input.Address,
	}).Error; err != nil {
		return nil, utils.ClassifyWriteError("UpdateWarehouse", "warehouse", input.Name, err)
	}
	return warehouse, nil
}

func DeleteWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	db := config.GetDB()
	warehouse, err := utils.FetchModel[Warehouse](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	movementCount, err := utils.ResourceCountWhere[VoucherInventoryEntry](db, ctx, "", "warehouse_id = ?", id)
	if err != nil {
		return nil, err
	}
	if movementCount > 0 {
		return nil, errors.New("warehouse has stock movements")
	}

	if err := db.WithContext(ctx).Delete(warehouse).Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteWarehouse", Err: err}
	}
	return warehouse, nil
}

func GetWarehouse(ctx context.Context, id int) (*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[Warehouse](config.GetDB(), ctx, companyId, id)
}

func GetWarehousesAll(ctx context.Context) ([]*Warehouse, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[Warehouse](config.GetDB(), ctx, companyId)
}
