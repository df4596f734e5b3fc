package idoklad

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/validation"
)

// Parse reads an iDoklad export file in one go, checks it against the
// export schema and decodes it.
//
// PARAMETERS:
//   - filePath: Path to a JSON file returned by /IssuedInvoices/Expanded.
//
// RETURNS:
//   - The decoded export. Invoices keep the order of the file.
//   - An error if the file cannot be read, does not match the schema, or
//     cannot be decoded.
func Parse(filePath string) (*Export, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read iDoklad export: %w", err)
	}

	return Decode(data)
}

// Decode validates and decodes raw export JSON.
func Decode(data []byte) (*Export, error) {
	if err := validation.ValidateExport(data); err != nil {
		return nil, err
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to decode iDoklad export: %w", err)
	}

	return &export, nil
}
