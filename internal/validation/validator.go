// =============================================================================
// iDoklad to Fakturoid - Export Validation
// =============================================================================
//
// This module checks the structure of an iDoklad export before anything is
// sent to Fakturoid. It answers one question: does every invoice carry every
// key the converter reads?
//
// VALIDATION STRATEGY:
//   - The embedded JSON schema lists required keys per level (export,
//     invoice, nested objects, invoice items).
//   - Scalars are only checked for a plausible JSON type; values themselves
//     are left to the Fakturoid API.
//   - All violations are collected and reported together.
//
// =============================================================================

package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/idoklad_export.json
var exportSchemaJSON []byte

const exportSchemaURL = "idoklad_export.json"

var (
	exportSchema     *jsonschema.Schema
	exportSchemaErr  error
	exportSchemaOnce sync.Once
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single schema violation.
type ValidationError struct {
	// Location is the JSON pointer of the offending value, e.g. "/Data/3".
	Location string

	// Message describes the violation, e.g. `missing properties: "Maturity"`.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	location := e.Location
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s", location, e.Message)
}

// ExportError collects every violation found in one export.
type ExportError struct {
	Errors []*ValidationError
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return "input does not match the iDoklad export format:\n" + FormatErrors(e.Errors)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateExport checks raw export JSON against the export schema.
//
// RETURNS:
//   - nil if the document is valid.
//   - An *ExportError listing every violation.
//   - A plain error if data is not JSON at all.
func ValidateExport(data []byte) error {
	schema, err := compiledExportSchema()
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("input is not valid JSON: %w", err)
	}

	err = schema.Validate(document)
	if err == nil {
		return nil
	}

	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return fmt.Errorf("failed to validate export: %w", err)
	}

	return &ExportError{Errors: flatten(schemaErr)}
}

func compiledExportSchema() (*jsonschema.Schema, error) {
	exportSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(exportSchemaURL, bytes.NewReader(exportSchemaJSON)); err != nil {
			exportSchemaErr = fmt.Errorf("add export schema: %w", err)
			return
		}
		exportSchema, exportSchemaErr = compiler.Compile(exportSchemaURL)
		if exportSchemaErr != nil {
			exportSchemaErr = fmt.Errorf("compile export schema: %w", exportSchemaErr)
		}
	})
	return exportSchema, exportSchemaErr
}

// flatten collects the leaf causes of a schema error; the inner nodes only
// repeat "doesn't validate with ..." for each $ref on the path.
func flatten(root *jsonschema.ValidationError) []*ValidationError {
	var result []*ValidationError

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			result = append(result, &ValidationError{
				Location: e.InstanceLocation,
				Message:  e.Message,
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Location < result[j].Location
	})

	return result
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors renders violations one per line.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	for i, err := range errs {
		fmt.Fprintf(&builder, "  %d. %s\n", i+1, err.Error())
	}
	return strings.TrimRight(builder.String(), "\n")
}
