package models

import (
	"context"
	"errors"
	"time"

	"github.com/saralerp/books_backend/config"
	"github.com/saralerp/books_backend/utils"
)

// LedgerGroup classifies ledgers in a tree. Nature rolls down to every ledger
// in the subtree. The tree must stay acyclic: reparenting is checked against
// the ancestor chain.
type LedgerGroup struct {
	ID        int          `gorm:"primary_key" json:"id"`
	CompanyId string       `gorm:"uniqueIndex:idx_ledger_group_name;type:char(36);not null" json:"company_id"`
	Name      string       `gorm:"uniqueIndex:idx_ledger_group_name;size:255;not null" json:"name" binding:"required"`
	ParentId  *int         `gorm:"index" json:"parent_id"`
	Nature    LedgerNature `gorm:"size:20;not null" json:"nature" binding:"required"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLedgerGroup struct {
	Name     string       `json:"name" binding:"required" validate:"required"`
	ParentId *int         `json:"parent_id"`
	Nature   LedgerNature `json:"nature" binding:"required" validate:"required"`
}

func (input *NewLedgerGroup) validate(ctx context.Context, companyId string, id int) error {
	db := config.GetDB()
	if !input.Nature.Valid() {
		return errors.New("invalid ledger group nature")
	}
	if err := utils.ValidateUnique[LedgerGroup](db, ctx, companyId, "name", input.Name, id); err != nil {
		return err
	}
	if input.ParentId != nil && *input.ParentId > 0 {
		if err := utils.ValidateResourceId[LedgerGroup](db, ctx, companyId, *input.ParentId); err != nil {
			return &utils.MissingReferenceError{Resource: "ledger group", Id: *input.ParentId}
		}
		if id > 0 {
			if err := checkGroupCycle(ctx, companyId, id, *input.ParentId); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkGroupCycle rejects a reparent that would make groupId its own
// ancestor.
func checkGroupCycle(ctx context.Context, companyId string, groupId int, newParentId int) error {
	db := config.GetDB()
	cursor := newParentId
	for depth := 0; cursor > 0 && depth < 100; depth++ {
		if cursor == groupId {
			return errors.New("ledger group cannot be its own ancestor")
		}
		var parent *int
		if err := db.WithContext(ctx).Model(&LedgerGroup{}).
			Where("company_id = ? AND id = ?", companyId, cursor).
			Select("parent_id").Scan(&parent).Error; err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		cursor = *parent
	}
	return nil
}

func CreateLedgerGroup(ctx context.Context, input *NewLedgerGroup) (*LedgerGroup, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	group := LedgerGroup{
		CompanyId: companyId,
		Name:      input.Name,
		ParentId:  input.ParentId,
		Nature:    input.Nature,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, utils.ClassifyWriteError("CreateLedgerGroup", "ledger group", input.Name, err)
	}
	return &group, nil
}

func UpdateLedgerGroup(ctx context.Context, id int, input *NewLedgerGroup) (*LedgerGroup, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	group, err := utils.FetchModel[LedgerGroup](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(group).Updates(map[string]interface{}{
		"Name":     input.Name,
		"ParentId": input.ParentId,
		"Nature":   input.Nature,
	}).Error; err != nil {
		return nil, utils.ClassifyWriteError("UpdateLedgerGroup", "ledger group", input.Name, err)
	}
	return group, nil
}

func DeleteLedgerGroup(ctx context.Context, id int) (*LedgerGroup, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	group, err := utils.FetchModel[LedgerGroup](db, ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// Do not delete while ledgers or child groups reference it.
	ledgerCount, err := utils.ResourceCountWhere[Ledger](db, ctx, companyId, "ledger_group_id = ?", id)
	if err != nil {
		return nil, err
	}
	childCount, err := utils.ResourceCountWhere[LedgerGroup](db, ctx, companyId, "parent_id = ?", id)
	if err != nil {
		return nil, err
	}
	if ledgerCount > 0 || childCount > 0 {
		return nil, errors.New("ledger group is in use")
	}

	if err := db.WithContext(ctx).Delete(group).Error; err != nil {
		return nil, &utils.StorageFailure{Op: "DeleteLedgerGroup", Err: err}
	}
	return group, nil
}

func GetLedgerGroup(ctx context.Context, id int) (*LedgerGroup, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[LedgerGroup](config.GetDB(), ctx, companyId, id)
}

func GetLedgerGroupsAll(ctx context.Context) ([]*LedgerGroup, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchAllModels[LedgerGroup](config.GetDB(), ctx, companyId)
}
