package workflow_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/saralerp/books_backend/models"
	"github.com/saralerp/books_backend/workflow"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeInvoiceLineItemsSameJurisdiction(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("2"), UnitPrice: d("100")},
	}

	items, totals := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", d("9"), d("9"), d("18"), true, decimal.Zero)

	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if !item.Quantity.Equal(d("2")) {
		t.Fatalf("quantity = %s, want 2", item.Quantity)
	}
	if !item.TaxableValue.Equal(d("200")) {
		t.Fatalf("taxable value = %s, want 200", item.TaxableValue)
	}
	if !item.CgstAmount.Equal(d("18")) || !item.SgstAmount.Equal(d("18")) {
		t.Fatalf("cgst/sgst = %s/%s, want 18/18", item.CgstAmount, item.SgstAmount)
	}
	if !item.IgstAmount.IsZero() {
		t.Fatalf("igst = %s, want 0", item.IgstAmount)
	}
	if !item.LineTotal.Equal(d("236")) {
		t.Fatalf("line total = %s, want 236", item.LineTotal)
	}
	if !totals.FinalTotal.Equal(d("236")) {
		t.Fatalf("final total = %s, want 236", totals.FinalTotal)
	}
}

func TestComputeInvoiceLineItemsInterState(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("1"), UnitPrice: d("1000")},
	}

	items, totals := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "MH", d("9"), d("9"), d("18"), true, decimal.Zero)

	item := items[0]
	if !item.CgstAmount.IsZero() || !item.SgstAmount.IsZero() {
		t.Fatalf("intra-state components on inter-state sale: cgst=%s sgst=%s",
			item.CgstAmount, item.SgstAmount)
	}
	if !item.IgstAmount.Equal(d("180")) {
		t.Fatalf("igst = %s, want 180", item.IgstAmount)
	}
	if !totals.FinalTotal.Equal(d("1180")) {
		t.Fatalf("final total = %s, want 1180", totals.FinalTotal)
	}
}

func TestComputeInvoiceLineItemsReturnNegatesQuantity(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("3"), UnitPrice: d("50")},
	}

	items, totals := workflow.ComputeInvoiceLineItems(
		raw, true, "KA", "KA", d("9"), d("9"), d("18"), false, decimal.Zero)

	item := items[0]
	if !item.Quantity.Equal(d("-3")) {
		t.Fatalf("return quantity = %s, want -3", item.Quantity)
	}
	if !item.TaxableValue.Equal(d("-150")) {
		t.Fatalf("taxable value = %s, want -150", item.TaxableValue)
	}
	if !item.CgstAmount.Equal(d("-13.5")) || !item.SgstAmount.Equal(d("-13.5")) {
		t.Fatalf("cgst/sgst = %s/%s, want -13.5/-13.5", item.CgstAmount, item.SgstAmount)
	}
	if !totals.FinalTotal.Equal(d("-177")) {
		t.Fatalf("final total = %s, want -177", totals.FinalTotal)
	}
}

func TestComputeInvoiceLineItemsReturnAlreadyNegative(t *testing.T) {
	// A caller that pre-negates the quantity must not have it flipped back.
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("-3"), UnitPrice: d("50")},
	}
	items, _ := workflow.ComputeInvoiceLineItems(
		raw, true, "KA", "KA", decimal.Zero, decimal.Zero, decimal.Zero, false, decimal.Zero)
	if !items[0].Quantity.Equal(d("-3")) {
		t.Fatalf("return quantity = %s, want -3", items[0].Quantity)
	}
}

func TestComputeInvoiceLineItemsDiscountReducesTaxBase(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("2"), UnitPrice: d("100"), Discount: d("50")},
	}

	items, totals := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", d("9"), d("9"), d("18"), true, decimal.Zero)

	item := items[0]
	if !item.TaxableValue.Equal(d("150")) {
		t.Fatalf("taxable value = %s, want 150", item.TaxableValue)
	}
	if !item.CgstAmount.Equal(d("13.5")) {
		t.Fatalf("cgst = %s, want 13.5 (tax must apply after discount)", item.CgstAmount)
	}
	if !totals.FinalTotal.Equal(d("177")) {
		t.Fatalf("final total = %s, want 177", totals.FinalTotal)
	}
}

func TestComputeInvoiceLineItemsReturnsAdjustment(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("1"), UnitPrice: d("500")},
	}

	_, totals := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", decimal.Zero, decimal.Zero, decimal.Zero, true, d("120"))

	if !totals.AmountBeforeTax.Equal(d("500")) {
		t.Fatalf("amount before tax = %s, want 500", totals.AmountBeforeTax)
	}
	if !totals.FinalTotal.Equal(d("380")) {
		t.Fatalf("final total = %s, want 380 (500 - 120 adjustment)", totals.FinalTotal)
	}
}

func TestComputeInvoiceLineItemsIsDeterministic(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: d("2"), UnitPrice: d("100")},
		{Quantity: d("1"), UnitPrice: d("49.99"), Discount: d("5")},
	}

	itemsA, totalsA := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", d("9"), d("9"), d("18"), true, decimal.Zero)
	itemsB, totalsB := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", d("9"), d("9"), d("18"), true, decimal.Zero)

	if !totalsA.FinalTotal.Equal(totalsB.FinalTotal) {
		t.Fatalf("totals diverge: %s vs %s", totalsA.FinalTotal, totalsB.FinalTotal)
	}
	for i := range itemsA {
		if !itemsA[i].LineTotal.Equal(itemsB[i].LineTotal) {
			t.Fatalf("line %d diverges: %s vs %s", i, itemsA[i].LineTotal, itemsB[i].LineTotal)
		}
	}
}

func TestComputeInvoiceLineItemsZeroQuantityLine(t *testing.T) {
	raw := []models.NewInvoiceLineItem{
		{Quantity: decimal.Zero, UnitPrice: d("100"), Description: "note only"},
	}
	items, totals := workflow.ComputeInvoiceLineItems(
		raw, false, "KA", "KA", d("9"), d("9"), d("18"), true, decimal.Zero)
	if !items[0].TaxableValue.IsZero() || !totals.FinalTotal.IsZero() {
		t.Fatalf("zero-quantity line produced value: taxable=%s final=%s",
			items[0].TaxableValue, totals.FinalTotal)
	}
}
