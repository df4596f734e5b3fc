// =============================================================================
// iDoklad to Fakturoid - Converter Module
// =============================================================================
//
// This module maps one iDoklad invoice onto the Fakturoid invoice schema.
// It is pure: no I/O, no state, the same input always gives the same output.
//
// CONVERSION:
//   1. Resolve the Fakturoid subject by the purchaser's registration number
//   2. Translate the payment method code
//   3. Copy the header fields (numbers, dates, notes, bank details, currency)
//   4. Convert the invoice lines, dropping artificial rounding lines
//
// Steps 1 and 2 can fail; both failures mean the invoice must not be sent.
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/idoklad"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// RoundingItemCode marks the line iDoklad injects to absorb rounding.
const RoundingItemCode = "ZaokPol"

// Language is the language every created invoice is issued in.
const Language = "en"

// bankAccountSeparator joins account number and bank code ("123456789/0100").
const bankAccountSeparator = "/"

// paymentMethods translates iDoklad payment option codes to Fakturoid
// payment methods. Codes not listed here stop the import.
var paymentMethods = map[string]string{
	"B": "bank",
}

// =============================================================================
// INVOICE CONVERSION
// =============================================================================

// ConvertInvoice converts an iDoklad invoice to a Fakturoid invoice.
//
// PARAMETERS:
//   - src: The iDoklad invoice.
//   - subjects: The Fakturoid subjects to match the purchaser against.
//
// RETURNS:
//   - The Fakturoid invoice, ready to be posted.
//   - *SubjectNotFoundError if no subject has the purchaser's registration number.
//   - *UnknownPaymentMethodError if the payment code has no mapping.
func ConvertInvoice(src *idoklad.Invoice, subjects []fakturoid.Subject) (*fakturoid.Invoice, error) {
	subjectID, err := FindSubjectID(subjects, src.Purchaser.IdentificationNumber)
	if err != nil {
		return nil, err
	}

	paymentMethod, err := PaymentMethod(src.PaymentOption.Code)
	if err != nil {
		return nil, err
	}

	address := src.MyCompanyDocumentAddress

	return &fakturoid.Invoice{
		Number:                src.DocumentNumber,
		VariableSymbol:        src.VariableSymbol,
		SubjectID:             subjectID,
		OrderNumber:           src.OrderNumber,
		IssuedOn:              src.DateOfIssue,
		TaxableFulfillmentDue: src.DateOfTaxing,
		Due:                   src.Maturity,
		Note:                  src.ItemsTextPrefix,
		FooterNote:            src.ItemsTextSuffix,
		PrivateNote:           src.Note,
		BankAccount:           BankAccount(address),
		IBAN:                  address.Iban,
		SwiftBIC:              address.Swift,
		PaymentMethod:         paymentMethod,
		Currency:              src.Currency.Code,
		ExchangeRate:          src.ExchangeRate,
		Language:              Language,
		Lines:                 ConvertInvoiceLines(src),
	}, nil
}

// ConvertInvoiceLines converts the invoice items, keeping their order.
//
// An item is dropped only when it is a rounding item AND its total is
// exactly zero. A rounding item that carries an amount is a real part of
// the invoice total and is kept.
func ConvertInvoiceLines(src *idoklad.Invoice) []fakturoid.InvoiceLine {
	lines := make([]fakturoid.InvoiceLine, 0, len(src.IssuedInvoiceItems))

	for _, item := range src.IssuedInvoiceItems {
		if IsEmptyRoundingItem(item) {
			continue
		}
		lines = append(lines, fakturoid.InvoiceLine{
			Name:      item.Name,
			Quantity:  item.Amount,
			UnitPrice: item.UnitPrice,
			VatRate:   item.VatRate,
		})
	}

	return lines
}

// IsEmptyRoundingItem reports whether item is a zero-total rounding line.
func IsEmptyRoundingItem(item idoklad.InvoiceItem) bool {
	return item.Code == RoundingItemCode && item.TotalPrice.IsZero()
}

// =============================================================================
// LOOKUPS
// =============================================================================

// FindSubjectID returns the id of the first subject whose registration
// number equals registrationNo.
//
// An empty registration number never matches. Fakturoid reports subjects
// without one as null, which decodes to "".
func FindSubjectID(subjects []fakturoid.Subject, registrationNo string) (int64, error) {
	if registrationNo == "" {
		return 0, &SubjectNotFoundError{RegistrationNo: registrationNo}
	}
	for _, subject := range subjects {
		if subject.RegistrationNo != "" && subject.RegistrationNo == registrationNo {
			return subject.ID, nil
		}
	}
	return 0, &SubjectNotFoundError{RegistrationNo: registrationNo}
}

// PaymentMethod translates an iDoklad payment option code.
func PaymentMethod(code string) (string, error) {
	method, ok := paymentMethods[code]
	if !ok {
		return "", &UnknownPaymentMethodError{Code: code}
	}
	return method, nil
}

// BankAccount formats the issuer's account as "<account>/<bank code>".
func BankAccount(address idoklad.CompanyAddress) string {
	return strings.Join([]string{address.AccountNumber, address.BankNumberCode}, bankAccountSeparator)
}
