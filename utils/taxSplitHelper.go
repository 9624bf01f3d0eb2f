package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxSplit is the decomposition of tax on a taxable value. Exactly one of
// {Cgst+Sgst, Igst} is non-zero: the combined pair applies when seller and
// buyer share a jurisdiction, the single inter-state component otherwise.
type TaxSplit struct {
	Cgst decimal.Decimal
	Sgst decimal.Decimal
	Igst decimal.Decimal
}

func (s TaxSplit) Total() decimal.Decimal {
	return s.Cgst.Add(s.Sgst).Add(s.Igst)
}

// CalculateTaxSplit applies the correct tax decomposition for a line item.
// Jurisdiction codes match case-insensitively. For return documents
// (isTaxInvoice false) tax is only computed when the caller supplies a
// non-zero rate: simple refunds may carry zero tax.
func CalculateTaxSplit(taxableValue decimal.Decimal, isTaxInvoice bool, sellerState string, buyerState string, cgstRate decimal.Decimal, sgstRate decimal.Decimal, igstRate decimal.Decimal) TaxSplit {

	split := TaxSplit{
		Cgst: decimal.Zero,
		Sgst: decimal.Zero,
		Igst: decimal.Zero,
	}

	if !isTaxInvoice && cgstRate.IsZero() && sgstRate.IsZero() && igstRate.IsZero() {
		return split
	}

	decimalOneHundred := decimal.NewFromInt(100)
	if strings.EqualFold(sellerState, buyerState) {
		split.Cgst = taxableValue.Mul(cgstRate).Div(decimalOneHundred)
		split.Sgst = taxableValue.Mul(sgstRate).Div(decimalOneHundred)
	} else {
		split.Igst = taxableValue.Mul(igstRate).Div(decimalOneHundred)
	}
	return split
}

// CalculateDiscountAmount resolves a discount input against a subtotal.
// discountType "P" is a percentage of the subtotal, anything else is a flat
// amount.
func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	decimalOneHundred := decimal.NewFromInt(100)

	if discount.GreaterThan(decimal.Zero) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.Zero
	}

	return discountAmount
}
