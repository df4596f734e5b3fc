package converter

import "fmt"

// SubjectNotFoundError means the purchaser does not exist in Fakturoid yet.
// The subject has to be created there before the import is rerun.
type SubjectNotFoundError struct {
	RegistrationNo string
}

func (e *SubjectNotFoundError) Error() string {
	return fmt.Sprintf("Subject with reg. no. %s not found in Fakturoid. You need to create it first.", e.RegistrationNo)
}

// UnknownPaymentMethodError means an iDoklad payment code has no Fakturoid
// counterpart in the mapping table.
type UnknownPaymentMethodError struct {
	Code string
}

func (e *UnknownPaymentMethodError) Error() string {
	return fmt.Sprintf("Unknown iDoklad payment method code: %s", e.Code)
}
