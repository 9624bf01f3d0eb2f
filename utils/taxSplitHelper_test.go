package utils_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/utils"
)

func TestCalculateTaxSplitSameJurisdiction(t *testing.T) {
	split := utils.CalculateTaxSplit(
		decimal.NewFromInt(1000), true, "KA", "KA",
		decimal.NewFromInt(9), decimal.NewFromInt(9), decimal.NewFromInt(18))

	if !split.Cgst.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("cgst = %s, want 90", split.Cgst)
	}
	if !split.Sgst.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("sgst = %s, want 90", split.Sgst)
	}
	if !split.Igst.IsZero() {
		t.Fatalf("igst = %s, want 0", split.Igst)
	}
	if !split.Total().Equal(decimal.NewFromInt(180)) {
		t.Fatalf("total = %s, want 180", split.Total())
	}
}

func TestCalculateTaxSplitCaseInsensitiveMatch(t *testing.T) {
	split := utils.CalculateTaxSplit(
		decimal.NewFromInt(1000), true, "ka", "KA",
		decimal.NewFromInt(9), decimal.NewFromInt(9), decimal.NewFromInt(18))

	if split.Cgst.IsZero() || split.Sgst.IsZero() {
		t.Fatalf("case difference must not flip to inter-state: got cgst=%s sgst=%s igst=%s",
			split.Cgst, split.Sgst, split.Igst)
	}
	if !split.Igst.IsZero() {
		t.Fatalf("igst = %s, want 0", split.Igst)
	}
}

func TestCalculateTaxSplitInterState(t *testing.T) {
	split := utils.CalculateTaxSplit(
		decimal.NewFromInt(1000), true, "KA", "MH",
		decimal.NewFromInt(9), decimal.NewFromInt(9), decimal.NewFromInt(18))

	if !split.Cgst.IsZero() || !split.Sgst.IsZero() {
		t.Fatalf("intra-state components must be zero: cgst=%s sgst=%s", split.Cgst, split.Sgst)
	}
	if !split.Igst.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("igst = %s, want 180", split.Igst)
	}
}

func TestCalculateTaxSplitReturnWithoutRates(t *testing.T) {
	split := utils.CalculateTaxSplit(
		decimal.NewFromInt(-500), false, "KA", "KA",
		decimal.Zero, decimal.Zero, decimal.Zero)

	if !split.Total().IsZero() {
		t.Fatalf("refund without rates must carry zero tax, got total=%s", split.Total())
	}
}

func TestCalculateTaxSplitReturnWithRates(t *testing.T) {
	split := utils.CalculateTaxSplit(
		decimal.NewFromInt(-500), false, "KA", "MH",
		decimal.Zero, decimal.Zero, decimal.NewFromInt(18))

	if !split.Igst.Equal(decimal.NewFromInt(-90)) {
		t.Fatalf("igst = %s, want -90", split.Igst)
	}
}

func TestCalculateDiscountAmount(t *testing.T) {
	subTotal := decimal.NewFromInt(200)

	percent := utils.CalculateDiscountAmount(subTotal, decimal.NewFromInt(10), "P")
	if !percent.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("10%% of 200 = %s, want 20", percent)
	}

	flat := utils.CalculateDiscountAmount(subTotal, decimal.NewFromInt(15), "F")
	if !flat.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("flat discount = %s, want 15", flat)
	}

	none := utils.CalculateDiscountAmount(subTotal, decimal.Zero, "P")
	if !none.IsZero() {
		t.Fatalf("zero discount = %s, want 0", none)
	}
}
