package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// ImbalancedVoucherError rejects a voucher whose debit and credit sums differ
// beyond the currency epsilon. Both sums are carried so the caller can show
// the user what was posted.
type ImbalancedVoucherError struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

func (e *ImbalancedVoucherError) Error() string {
	return fmt.Sprintf("voucher entries are not balanced: debit total %s, credit total %s",
		e.DebitTotal.String(), e.CreditTotal.String())
}

// DuplicateNumberError surfaces a unique-constraint collision on a document
// number (voucher or invoice) as a user-correctable validation error.
type DuplicateNumberError struct {
	Document string
	Number   string
}

func (e *DuplicateNumberError) Error() string {
	return fmt.Sprintf("%s number %q already exists", e.Document, e.Number)
}

// MissingReferenceError marks a referenced resource that does not exist or
// belongs to a different company.
type MissingReferenceError struct {
	Resource string
	Id       int
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.Id)
}

// StorageFailure wraps a transaction scope that could not commit for reasons
// not otherwise classified. Always follows a rollback of the whole operation.
type StorageFailure struct {
	Op  string
	Err error
}

func (e *StorageFailure) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// IsDuplicateKey reports whether err is a MySQL duplicate-entry violation.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// ClassifyWriteError maps a raw write error to the domain taxonomy: a
// duplicate key on the given document number becomes DuplicateNumberError,
// everything else is a StorageFailure.
func ClassifyWriteError(op string, document string, number string, err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicateKey(err) {
		return &DuplicateNumberError{Document: document, Number: number}
	}
	return &StorageFailure{Op: op, Err: err}
}

// IsValidationError reports whether err belongs to the user-correctable part
// of the taxonomy (4xx-equivalent).
func IsValidationError(err error) bool {
	var imbalanced *ImbalancedVoucherError
	var duplicate *DuplicateNumberError
	var missing *MissingReferenceError
	return errors.As(err, &imbalanced) ||
		errors.As(err, &duplicate) ||
		errors.As(err, &missing) ||
		errors.Is(err, ErrorRecordNotFound)
}
