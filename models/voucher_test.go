package models_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/utils"
)

func TestCheckVoucherBalanceAccepts(t *testing.T) {
	entries := []models.NewVoucherEntry{
		{LedgerId: 1, Debit: decimal.NewFromInt(118)},
		{LedgerId: 2, Credit: decimal.NewFromInt(100)},
		{LedgerId: 3, Credit: decimal.NewFromInt(18)},
	}
	debit, credit, err := models.CheckVoucherBalance(entries)
	if err != nil {
		t.Fatalf("balanced voucher rejected: %v", err)
	}
	if !debit.Equal(decimal.NewFromInt(118)) || !credit.Equal(decimal.NewFromInt(118)) {
		t.Fatalf("totals = %s / %s, want 118 / 118", debit, credit)
	}
}

func TestCheckVoucherBalanceRejectsImbalance(t *testing.T) {
	entries := []models.NewVoucherEntry{
		{LedgerId: 1, Debit: decimal.NewFromInt(100)},
		{LedgerId: 2, Credit: decimal.NewFromInt(90)},
	}
	debit, credit, err := models.CheckVoucherBalance(entries)
	if err == nil {
		t.Fatalf("imbalanced voucher accepted: debit=%s credit=%s", debit, credit)
	}
	var imbalanced *utils.ImbalancedVoucherError
	if !errors.As(err, &imbalanced) {
		t.Fatalf("error type = %T, want ImbalancedVoucherError", err)
	}
	if !imbalanced.DebitTotal.Equal(decimal.NewFromInt(100)) ||
		!imbalanced.CreditTotal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("error totals = %s / %s, want 100 / 90",
			imbalanced.DebitTotal, imbalanced.CreditTotal)
	}
}

func TestCheckVoucherBalanceToleratesRoundingEpsilon(t *testing.T) {
	entries := []models.NewVoucherEntry{
		{LedgerId: 1, Debit: decimal.RequireFromString("100.005")},
		{LedgerId: 2, Credit: decimal.NewFromInt(100)},
	}
	if _, _, err := models.CheckVoucherBalance(entries); err != nil {
		t.Fatalf("difference within epsilon rejected: %v", err)
	}

	entries[0].Debit = decimal.RequireFromString("100.02")
	if _, _, err := models.CheckVoucherBalance(entries); err == nil {
		t.Fatal("difference beyond epsilon accepted")
	}
}

func TestCheckVoucherBalanceRejectsEmptyRow(t *testing.T) {
	entries := []models.NewVoucherEntry{
		{LedgerId: 1, Debit: decimal.NewFromInt(50)},
		{LedgerId: 2},
	}
	if _, _, err := models.CheckVoucherBalance(entries); err == nil {
		t.Fatal("entry with neither debit nor credit accepted")
	}
}

func TestSignedInventoryQuantity(t *testing.T) {
	qty := decimal.NewFromInt(5)

	if got := models.SignedInventoryQuantity(models.VoucherTypeSales, qty); !got.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("sales movement = %s, want -5", got)
	}
	// Sign convention holds even when the caller already negated.
	if got := models.SignedInventoryQuantity(models.VoucherTypeSales, qty.Neg()); !got.Equal(decimal.NewFromInt(-5)) {
		t.Fatalf("sales movement from negative input = %s, want -5", got)
	}
	if got := models.SignedInventoryQuantity(models.VoucherTypePurchase, qty); !got.Equal(qty) {
		t.Fatalf("purchase movement = %s, want 5", got)
	}
	if got := models.SignedInventoryQuantity(models.VoucherTypeJournal, qty); !got.Equal(qty) {
		t.Fatalf("journal movement = %s, want 5", got)
	}
}
