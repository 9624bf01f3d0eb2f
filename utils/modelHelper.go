package utils

import (
	"context"

	"gorm.io/gorm"

	"github.com/saralerp/books_backend/config"
)

// FetchModel loads a record of type T by id, scoped to the company, with
// optional association preloading.
func FetchModel[T any](db *gorm.DB, ctx context.Context, companyId string, id int, associations ...string) (*T, error) {

	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// FetchAllModels loads all records of type T for the company.
func FetchAllModels[T any](db *gorm.DB, ctx context.Context, companyId string, associations ...string) ([]*T, error) {

	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchModelsByName filters records of type T on a name fragment, capped at
// config.SearchLimit rows.
func SearchModelsByName[T any](db *gorm.DB, ctx context.Context, companyId string, name string) ([]*T, error) {
	var results []*T
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Where("name LIKE ?", "%"+name+"%").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
