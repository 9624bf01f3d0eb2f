package models

// VoucherType classifies manually entered double-entry documents.
type VoucherType string

const (
	VoucherTypeSales    VoucherType = "Sales"
	VoucherTypePurchase VoucherType = "Purchase"
	VoucherTypeJournal  VoucherType = "Journal"
	VoucherTypePayment  VoucherType = "Payment"
	VoucherTypeReceipt  VoucherType = "Receipt"
)

// IsOutward reports whether the voucher type denotes an outward stock
// movement: linked inventory quantities are stored negative for these.
func (t VoucherType) IsOutward() bool {
	return t == VoucherTypeSales
}

func (t VoucherType) Valid() bool {
	switch t {
	case VoucherTypeSales, VoucherTypePurchase, VoucherTypeJournal, VoucherTypePayment, VoucherTypeReceipt:
		return true
	}
	return false
}

type InvoiceType string

const (
	InvoiceTypeTaxInvoice  InvoiceType = "TAX_INVOICE"
	InvoiceTypeSalesReturn InvoiceType = "SALES_RETURN"
)

func (t InvoiceType) IsReturn() bool {
	return t == InvoiceTypeSalesReturn
}

func (t InvoiceType) Valid() bool {
	return t == InvoiceTypeTaxInvoice || t == InvoiceTypeSalesReturn
}

type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "Unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PartiallyPaid"
	InvoiceStatusPaid          InvoiceStatus = "Paid"
)

// LedgerNature is the accounting nature of a ledger group.
type LedgerNature string

const (
	LedgerNatureAsset     LedgerNature = "Asset"
	LedgerNatureLiability LedgerNature = "Liability"
	LedgerNatureIncome    LedgerNature = "Income"
	LedgerNatureExpense   LedgerNature = "Expense"
)

func (n LedgerNature) Valid() bool {
	switch n {
	case LedgerNatureAsset, LedgerNatureLiability, LedgerNatureIncome, LedgerNatureExpense:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "Cash"
	PaymentMethodBank PaymentMethod = "Bank"
)

// TransactionCategory is the semantic tag on a derived financial transaction.
type TransactionCategory string

const (
	TransactionCategorySaleOnCredit   TransactionCategory = "Sale to Customer (On Credit)"
	TransactionCategoryCreditNote     TransactionCategory = "Credit Note Issued"
	TransactionCategoryPaymentCash    TransactionCategory = "Payment Received (Cash)"
	TransactionCategoryPaymentBank    TransactionCategory = "Payment Received (Bank)"
	TransactionCategoryRefundCash     TransactionCategory = "Refund Paid (Cash)"
	TransactionCategoryRefundBank     TransactionCategory = "Refund Paid (Bank)"
)
