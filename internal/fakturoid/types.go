package fakturoid

import "github.com/shopspring/decimal"

// Subject is a counterparty known to Fakturoid. Only the fields needed to
// match iDoklad purchasers are kept; yaml tags define the cache layout.
type Subject struct {
	ID             int64  `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	RegistrationNo string `json:"registration_no" yaml:"registration_no"`
	VatNo          string `json:"vat_no" yaml:"vat_no"`
}

// Invoice is the request body of POST /invoices.json.
type Invoice struct {
	Number                string              `json:"number"`
	VariableSymbol        string              `json:"variable_symbol"`
	SubjectID             int64               `json:"subject_id"`
	OrderNumber           string              `json:"order_number"`
	IssuedOn              string              `json:"issued_on"`
	TaxableFulfillmentDue string              `json:"taxable_fulfillment_due"`
	Due                   string              `json:"due"`
	Note                  string              `json:"note"`
	FooterNote            string              `json:"footer_note"`
	PrivateNote           string              `json:"private_note"`
	BankAccount           string              `json:"bank_account"`
	IBAN                  string              `json:"iban"`
	SwiftBIC              string              `json:"swift_bic"`
	PaymentMethod         string              `json:"payment_method"`
	Currency              string              `json:"currency"`
	ExchangeRate          decimal.NullDecimal `json:"exchange_rate"`
	Language              string              `json:"language"`
	Lines                 []InvoiceLine       `json:"lines"`
}

// InvoiceLine is a single invoice row.
type InvoiceLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	VatRate   decimal.Decimal `json:"vat_rate"`
}

// CreatedInvoice is the part of the POST /invoices.json response the
// importer uses.
type CreatedInvoice struct {
	ID       int64           `json:"id"`
	Number   string          `json:"number"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	HTMLURL  string          `json:"html_url"`
}
