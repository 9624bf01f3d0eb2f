package utils

import (
	"context"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// ValidateStruct runs validator tags on an input struct. The HTTP layer also
// binds with gin, but non-HTTP callers (seed command, tests) go through here.
func ValidateStruct(input interface{}) error {
	return validate.Struct(input)
}

// ValidateResourceId checks that a record of type T with the given id exists
// for the company. Returns ErrorRecordNotFound when it does not.
//
// The db handle is passed explicitly so callers inside a transaction see
// uncommitted rows of their own scope.
func ValidateResourceId[T any](db *gorm.DB, ctx context.Context, companyId string, id interface{}) error {

	count, err := ResourceCountWhere[T](db, ctx, companyId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// ValidateUnique checks that no record of type T other than exceptId carries
// the given column value for the company.
func ValidateUnique[T any](db *gorm.DB, ctx context.Context, companyId string, column string, value interface{}, exceptId int) error {
	var count int64
	var err error
	if exceptId == 0 {
		count, err = ResourceCountWhere[T](db, ctx, companyId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](db, ctx, companyId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateNumberError{Document: column, Number: toString(value)}
	}
	return nil
}

// ResourceCountWhere counts records of type T, scoped by company when
// companyId is non-blank.
func ResourceCountWhere[T any](db *gorm.DB, ctx context.Context, companyId string, condition string, value ...interface{}) (int64, error) {
	var model T

	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if companyId != "" {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
