package utils_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/saralerp/books_backend/utils"
)

func TestClassifyWriteErrorDuplicateKey(t *testing.T) {
	raw := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'INV-202601-0001' for key 'idx_invoice_number'"}

	err := utils.ClassifyWriteError("CreateInvoiceWithEffects", "invoice", "INV-202601-0001", raw)

	var duplicate *utils.DuplicateNumberError
	if !errors.As(err, &duplicate) {
		t.Fatalf("got %T (%v), want DuplicateNumberError", err, err)
	}
	if duplicate.Document != "invoice" || duplicate.Number != "INV-202601-0001" {
		t.Fatalf("duplicate = %+v, want document %q number %q", duplicate, "invoice", "INV-202601-0001")
	}
	if !utils.IsValidationError(err) {
		t.Fatal("duplicate number must classify as user-correctable")
	}
}

func TestClassifyWriteErrorWrappedDuplicateKey(t *testing.T) {
	raw := fmt.Errorf("create voucher: %w", &mysql.MySQLError{Number: 1062})

	err := utils.ClassifyWriteError("CreateVoucher", "voucher", "JV-0007", raw)

	var duplicate *utils.DuplicateNumberError
	if !errors.As(err, &duplicate) {
		t.Fatalf("got %T (%v), want DuplicateNumberError through the wrap", err, err)
	}
}

func TestClassifyWriteErrorOtherFailure(t *testing.T) {
	raw := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	err := utils.ClassifyWriteError("CreateVoucher", "voucher", "JV-0007", raw)

	var failure *utils.StorageFailure
	if !errors.As(err, &failure) {
		t.Fatalf("got %T (%v), want StorageFailure", err, err)
	}
	if !errors.Is(err, raw) {
		t.Fatal("StorageFailure must unwrap to the raw driver error")
	}
	if utils.IsValidationError(err) {
		t.Fatal("storage failure must not classify as user-correctable")
	}
}

func TestClassifyWriteErrorNil(t *testing.T) {
	if err := utils.ClassifyWriteError("CreateVoucher", "voucher", "JV-0007", nil); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !utils.IsDuplicateKey(&mysql.MySQLError{Number: 1062}) {
		t.Fatal("1062 must report as duplicate key")
	}
	if utils.IsDuplicateKey(&mysql.MySQLError{Number: 1213}) {
		t.Fatal("1213 must not report as duplicate key")
	}
	if utils.IsDuplicateKey(errors.New("plain error")) {
		t.Fatal("non-driver error must not report as duplicate key")
	}
}
