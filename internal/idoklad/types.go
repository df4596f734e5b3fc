// =============================================================================
// iDoklad to Fakturoid - iDoklad Export Types
// =============================================================================
//
// Typed view of the JSON produced by iDoklad's /IssuedInvoices/Expanded
// endpoint. Only the keys read during conversion are declared; everything
// else in the export is ignored.
//
// =============================================================================

package idoklad

import "github.com/shopspring/decimal"

// Export is the top-level document of an iDoklad export file.
type Export struct {
	Data []Invoice `json:"Data"`
}

// Invoice is one issued invoice.
type Invoice struct {
	DocumentNumber  string `json:"DocumentNumber"`
	VariableSymbol  string `json:"VariableSymbol"`
	OrderNumber     string `json:"OrderNumber"`
	DateOfIssue     string `json:"DateOfIssue"`
	DateOfTaxing    string `json:"DateOfTaxing"`
	Maturity        string `json:"Maturity"`
	ItemsTextPrefix string `json:"ItemsTextPrefix"`
	ItemsTextSuffix string `json:"ItemsTextSuffix"`
	Note            string `json:"Note"`

	Purchaser                Purchaser      `json:"Purchaser"`
	MyCompanyDocumentAddress CompanyAddress `json:"MyCompanyDocumentAddress"`
	PaymentOption            PaymentOption  `json:"PaymentOption"`
	Currency                 Currency       `json:"Currency"`

	// ExchangeRate is null in some exports; it is then left unset.
	ExchangeRate decimal.NullDecimal `json:"ExchangeRate"`

	IssuedInvoiceItems []InvoiceItem `json:"IssuedInvoiceItems"`
}

// Purchaser identifies the customer. IdentificationNumber is the IČO.
type Purchaser struct {
	IdentificationNumber string `json:"IdentificationNumber"`
}

// CompanyAddress holds the issuer's bank details as printed on the invoice.
type CompanyAddress struct {
	AccountNumber  string `json:"AccountNumber"`
	BankNumberCode string `json:"BankNumberCode"`
	Iban           string `json:"Iban"`
	Swift          string `json:"Swift"`
}

// PaymentOption carries iDoklad's payment method code, e.g. "B".
type PaymentOption struct {
	Code string `json:"Code"`
}

// Currency carries the ISO currency code, e.g. "CZK".
type Currency struct {
	Code string `json:"Code"`
}

// InvoiceItem is one invoice line.
type InvoiceItem struct {
	Code       string          `json:"Code"`
	Name       string          `json:"Name"`
	Amount     decimal.Decimal `json:"Amount"`
	UnitPrice  decimal.Decimal `json:"UnitPrice"`
	VatRate    decimal.Decimal `json:"VatRate"`
	TotalPrice decimal.Decimal `json:"TotalPrice"`
}
